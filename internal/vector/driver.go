package vector

// Capabilities are the static capability flags a driver advertises.
type Capabilities struct {
	Vector    bool `json:"vector" yaml:"vector"`
	VirtualIO bool `json:"virtual_io" yaml:"virtual_io"`
}

// OptionSpec documents one creation option a driver understands.
type OptionSpec struct {
	Name        string   `json:"name" yaml:"name"`
	Type        string   `json:"type" yaml:"type"`
	Values      []string `json:"values,omitempty" yaml:"values,omitempty"`
	Default     string   `json:"default,omitempty" yaml:"default,omitempty"`
	Description string   `json:"description" yaml:"description"`
}

// Metadata is the static, never-mutated description of a driver.
type Metadata struct {
	// Name is the unique registry key (e.g. "GeoRSS").
	Name            string       `json:"name" yaml:"name"`
	LongName        string       `json:"long_name" yaml:"long_name"`
	HelpTopic       string       `json:"help_topic" yaml:"help_topic"`
	Capabilities    Capabilities `json:"capabilities" yaml:"capabilities"`
	Extensions      []string     `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	CreationOptions []OptionSpec `json:"creation_options,omitempty" yaml:"creation_options,omitempty"`
}

// Driver is a pluggable format adapter.
//
// Open and Create are deliberately asymmetric. Open reports a mismatch or a
// failed bind as NotApplicable so the next driver can try the same file.
// Create reports failure as an error because no other driver will pick it up.
type Driver interface {
	Metadata() Metadata

	// Open returns Matched with a bound dataset, or NotApplicable. It never
	// returns a partially initialised dataset.
	Open(info *OpenInfo) OpenResult

	// Create makes a new empty dataset at path.
	Create(path string, opts Options) (Dataset, error)

	// Delete removes the dataset at path.
	Delete(path string) error
}

// OpenResult is the outcome of Driver.Open: either Matched or NotApplicable.
type OpenResult interface {
	openResult()
}

// Matched carries a bound dataset now owned by the caller.
type Matched struct {
	Dataset Dataset
}

// NotApplicable means the driver declined the file; try another driver.
type NotApplicable struct{}

func (Matched) openResult()       {}
func (NotApplicable) openResult() {}

// Match wraps ds in a Matched result.
func Match(ds Dataset) OpenResult { return Matched{Dataset: ds} }

// NoMatch returns the NotApplicable result.
func NoMatch() OpenResult { return NotApplicable{} }
