package snapshot

import "time"

// MaxLanguages bounds the language mix to the top entries.
const MaxLanguages = 6

// State is the lifecycle state of a snapshot.
type State string

const (
	// StatePending means no statistics have been produced yet; every field is a placeholder.
	StatePending State = "pending"
	// StatePopulated means every field carries a concrete value.
	StatePopulated State = "populated"
)

// Snapshot is the flat record of display statistics rendered into the highlights region.
type Snapshot struct {
	State            State           `json:"state"              yaml:"state"`
	GeneratedAt      time.Time       `json:"generated_at"       yaml:"generated_at"`
	Contributions30d int             `json:"contributions_30d"  yaml:"contributions_30d"`
	Contributions90d int             `json:"contributions_90d"  yaml:"contributions_90d"`
	OriginalVsForked RepoOrigin      `json:"original_vs_forked" yaml:"original_vs_forked"`
	ActiveVsArchived RepoActivity    `json:"active_vs_archived" yaml:"active_vs_archived"`
	LanguageMix      []LanguageShare `json:"language_mix"       yaml:"language_mix"`
	PublicRepoCount  int             `json:"public_repo_count"  yaml:"public_repo_count"`
	PrivateRepoCount int             `json:"private_repo_count" yaml:"private_repo_count"`
	StarCount        int             `json:"star_count"         yaml:"star_count"`
	FollowerCount    int             `json:"follower_count"     yaml:"follower_count"`
}

// RepoOrigin splits repositories into original work and forks.
type RepoOrigin struct {
	Original int `json:"original" yaml:"original"`
	Forked   int `json:"forked"   yaml:"forked"`
}

// RepoActivity splits repositories into active and archived.
type RepoActivity struct {
	Active   int `json:"active"   yaml:"active"`
	Archived int `json:"archived" yaml:"archived"`
}

// LanguageShare is one entry of the language mix.
type LanguageShare struct {
	Label      string  `json:"label"      yaml:"label"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}
