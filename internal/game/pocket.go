package game

// Pocket is a circular capture zone.
type Pocket struct {
	ID       int     `json:"id"`
	Position Vec2    `json:"position"`
	Radius   float64 `json:"radius"`
}

func (p *Pocket) Contains(pos Vec2) bool {
	return p.Position.DistanceTo(pos) <= p.Radius
}
