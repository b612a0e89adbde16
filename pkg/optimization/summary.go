// Package optimization provides shared data structures for goal seek results.
package optimization

// Summary captures the result of a single goal seek over one calculator input.
type Summary struct {
	Calculator      string   `json:"calculator"`
	Input           string   `json:"input"`
	Output          string   `json:"output"`
	Mode            string   `json:"mode"`
	Goal            float64  `json:"goal"`
	Original        float64  `json:"original"`
	Value           float64  `json:"value"`
	Achieved        float64  `json:"achieved"`
	Headroom        float64  `json:"headroom"`
	Min             float64  `json:"min"`
	Max             float64  `json:"max"`
	Iterations      int      `json:"iterations"`
	Converged       bool     `json:"converged"`
	Notes           []string `json:"notes,omitempty"`
	OriginalDisplay string   `json:"originalDisplay,omitempty"`
	ValueDisplay    string   `json:"valueDisplay,omitempty"`
	AchievedDisplay string   `json:"achievedDisplay,omitempty"`
}
