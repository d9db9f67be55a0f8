package game

// TableStatus represents the lifecycle state of a table session
type TableStatus string

const (
	StatusActive TableStatus = "ACTIVE"
	StatusClosed TableStatus = "CLOSED"
)
