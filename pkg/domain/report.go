package domain

// Report summarizes one compile for callers and outer surfaces.
type Report struct {
	Grammar   string     `json:"grammar"`
	State     State      `json:"state"`
	Alphabet  Alphabet   `json:"alphabet"`
	Rules     []Rule     `json:"rules"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
}
