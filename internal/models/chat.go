package models

// ChatRequest is the body of POST /api/chat. One request drives exactly one
// orchestration run.
type ChatRequest struct {
	Query    string `json:"query" binding:"required"`
	Model    string `json:"model"`
	Language string `json:"language"`
}

type RouteTool string

const (
	RouteExplainArticle RouteTool = "EXPLAIN_ARTICLE"
	RouteTopicSearch    RouteTool = "TOPIC_SEARCH"
	RouteGeneralQA      RouteTool = "GENERAL_QA"
)

// RouteDecision is the router's classification of a query. Only the fields
// required by the selected tool are populated; dispatch validates them.
type RouteDecision struct {
	Tool          RouteTool
	ArticleNumber int
	Topic         string
	Query         string
}

type ChunkType string

const (
	ChunkTypeExplanation   ChunkType = "explanation"
	ChunkTypeSearchResults ChunkType = "search_results"
	ChunkTypeSources       ChunkType = "sources"
	ChunkTypeToken         ChunkType = "token"
	ChunkTypeError         ChunkType = "error"
)

// ResponseChunk is one element of a chat transcript, written to the client as
// a single NDJSON line. The Type field tags which variant it is.
type ResponseChunk struct {
	Type        ChunkType       `json:"type"`
	Content     string          `json:"content,omitempty"`
	RelatedData *ArticleDetails `json:"related_data,omitempty"`
	Results     []SearchHit     `json:"results,omitempty"`
}

// CachedChat is the transcript unit stored in the cache and replayed verbatim
// on a hit.
type CachedChat struct {
	Chunks []ResponseChunk `json:"chunks"`
}

type SearchHit struct {
	ID            string  `json:"id"`
	ArticleNumber int     `json:"article_number"`
	Title         string  `json:"title"`
	TextSnippet   string  `json:"text_snippet"`
	Score         float64 `json:"score"`
}

type Obligation struct {
	Summary string `json:"summary"`
	Role    string `json:"role"`
}

type Term struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

type ArticleRef struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
}

type ArticleDetails struct {
	ID          string       `json:"id"`
	Number      int          `json:"number"`
	Title       string       `json:"title"`
	Obligations []Obligation `json:"obligations"`
	Terms       []Term       `json:"terms"`
	Topics      []string     `json:"topics"`
	References  []ArticleRef `json:"references"`
}

// TopicArticle is the compact article projection returned by topic lookups.
type TopicArticle struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
	Title  string `json:"title"`
}

type Explanation struct {
	ArticleID   string          `json:"article_id"`
	Explanation string          `json:"explanation"`
	Context     *ArticleDetails `json:"context"`
}

// NormalizeArticleID prefixes bare numeric ids so "32" and "ART-32" resolve
// to the same graph node.
func NormalizeArticleID(id string) string {
	if len(id) >= 4 && id[:4] == "ART-" {
		return id
	}
	return "ART-" + id
}
