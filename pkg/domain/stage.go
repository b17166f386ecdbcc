package domain

// Stage identifies one step of the compilation pipeline.
type Stage string

const (
	StagePreprocess Stage = "preprocess"
	StageAlphabet   Stage = "alphabet"
	StageCompile    Stage = "compile"
)

// State is the position of a compile in its state machine.
type State string

const (
	StateReset              State = "reset"
	StatePreprocessing      State = "preprocessing"
	StateAlphabetResolution State = "alphabet_resolution"
	StateRuleCompilation    State = "rule_compilation"
	StateComposed           State = "composed"     // success: single grammar automaton
	StateStorableSet        State = "storable_set" // success: per-rule automata
	StateFailed             State = "failed"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateComposed || s == StateStorableSet || s == StateFailed
}

// Mode selects which success terminal a compile heads for.
type Mode string

const (
	ModeStore    Mode = "store"
	ModeStorable Mode = "storable"
)
