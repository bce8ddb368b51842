package service

type Direction string

const (
	SwipeUp   Direction = "up"
	SwipeDown Direction = "down"
)

// Cursor is the index of the active video in a feed of n videos. Moves
// saturate at both ends. An empty feed pins the index at 0.
type Cursor struct {
	index int
	n     int
}

func NewCursor(n int) *Cursor {
	return &Cursor{n: max(n, 0)}
}

func (c *Cursor) Index() int { return c.index }

func (c *Cursor) Len() int { return c.n }

// Up moves to the next video.
func (c *Cursor) Up() int {
	if c.index < c.n-1 {
		c.index++
	}
	return c.index
}

// Down moves to the previous video.
func (c *Cursor) Down() int {
	if c.index > 0 {
		c.index--
	}
	return c.index
}

func (c *Cursor) Swipe(d Direction) int {
	switch d {
	case SwipeUp:
		return c.Up()
	case SwipeDown:
		return c.Down()
	}
	return c.index
}

// Reset keeps the index in range after the feed was reloaded with n videos.
func (c *Cursor) Reset(n int) {
	c.n = max(n, 0)
	if c.index > c.n-1 {
		c.index = max(c.n-1, 0)
	}
}
