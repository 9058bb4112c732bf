package domain

type QueryType string

const (
	QueryWhoIs             QueryType = "who_is"
	QueryProgrammeOrModule QueryType = "programme_or_module"
	QueryCampusDirections  QueryType = "campus_directions"
	QueryAdminProcess      QueryType = "admin_process"
	QueryResearch          QueryType = "research"
	QueryGeneral           QueryType = "general"
	QueryChitchat          QueryType = "chitchat"
	QueryNonsense          QueryType = "nonsense"
)

func ValidQueryType(v string) bool {
	switch QueryType(v) {
	case QueryWhoIs, QueryProgrammeOrModule, QueryCampusDirections,
		QueryAdminProcess, QueryResearch, QueryGeneral, QueryChitchat, QueryNonsense:
		return true
	default:
		return false
	}
}

type RetrievalMode string

const (
	RetrievalHybrid     RetrievalMode = "hybrid"
	RetrievalDenseOnly  RetrievalMode = "dense_only"
	RetrievalSparseOnly RetrievalMode = "sparse_only"
)

func ValidRetrievalMode(v string) bool {
	switch RetrievalMode(v) {
	case RetrievalHybrid, RetrievalDenseOnly, RetrievalSparseOnly:
		return true
	default:
		return false
	}
}

// QueryPlan is the router's classification of a question. Produced once per
// question and consumed by the retriever and generator; never persisted.
type QueryPlan struct {
	QueryType     QueryType     `json:"query_type"`
	Topic         string        `json:"topic"`
	NeedsMultiHop bool          `json:"needs_multi_hop"`
	RetrievalMode RetrievalMode `json:"retrieval_mode"`
	MaxChunks     int           `json:"max_chunks"`
	DomainHint    string        `json:"domain_hint,omitempty"`
}

// SkipsRetrieval reports whether the plan routes past the retriever entirely.
func (p QueryPlan) SkipsRetrieval() bool {
	return p.QueryType == QueryChitchat || p.QueryType == QueryNonsense
}
