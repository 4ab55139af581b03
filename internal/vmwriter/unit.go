package vmwriter

// Unit is the compiled code of one class.
//
// Label names embed a counter shared by the whole program, so a unit also
// records the counter value it started from and the value after its last
// label. A unit can only be placed where the program counter equals
// FirstLabel.
type Unit struct {
	Class      string
	Code       []byte
	FirstLabel int
	NextLabel  int
}

// Labels returns how many labels the unit generated.
func (u *Unit) Labels() int {
	return u.NextLabel - u.FirstLabel
}
