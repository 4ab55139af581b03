package token

// Cursor walks a fully materialized token slice. It only moves forward.
type Cursor struct {
	tokens []Token
	pos    int
}

func NewCursor(tokens []Token) *Cursor {
	return &Cursor{tokens: tokens}
}

// Current returns the token under the cursor, or false at end of input.
func (c *Cursor) Current() (Token, bool) {
	return c.Peek(0)
}

// Peek returns the token offset positions ahead of the current one.
// Peek(0) is the current token. Out of range offsets yield false.
func (c *Cursor) Peek(offset int) (Token, bool) {
	i := c.pos + offset
	if offset < 0 || i >= len(c.tokens) {
		return Token{}, false
	}
	return c.tokens[i], true
}

// Advance moves to the next token. It is a no-op at end of input.
func (c *Cursor) Advance() {
	if c.pos < len(c.tokens) {
		c.pos++
	}
}

func (c *Cursor) AtEnd() bool {
	return c.pos >= len(c.tokens)
}

// Last returns the final token of the input, used to position
// end-of-input errors.
func (c *Cursor) Last() (Token, bool) {
	if len(c.tokens) == 0 {
		return Token{}, false
	}
	return c.tokens[len(c.tokens)-1], true
}
