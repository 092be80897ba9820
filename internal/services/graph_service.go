package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/arslanaka/GDPR-Explainer/internal/config"
	"github.com/arslanaka/GDPR-Explainer/internal/models"
	"github.com/arslanaka/GDPR-Explainer/internal/pkg/logger"
)

// GraphService reads the GDPR knowledge graph from Neo4j. All queries are
// read-only; the graph is populated by an offline loader.
type GraphService struct {
	driver neo4j.DriverWithContext
	logger *logger.Logger
}

const articleDetailsQuery = `
MATCH (a:Article {id: $article_id})
OPTIONAL MATCH (a)-[:HAS_OBLIGATION]->(o:Obligation)
OPTIONAL MATCH (o)-[:APPLIES_TO]->(r:Role)
OPTIONAL MATCH (a)-[:DEFINES]->(t:Term)
OPTIONAL MATCH (a)-[:RELATES_TO]->(topic:Topic)
OPTIONAL MATCH (a)-[:REFERS_TO]->(ref:Article)
RETURN a,
       collect(DISTINCT {summary: o.summary, role: r.name}) as obligations,
       collect(DISTINCT {term: t.name, definition: t.definition}) as terms,
       collect(DISTINCT topic.name) as topics,
       collect(DISTINCT {id: ref.id, number: ref.number}) as references`

const allTopicsQuery = `MATCH (t:Topic) RETURN t.name as name ORDER BY t.name`

const articlesByTopicQuery = `
MATCH (t:Topic {name: $topic})<-[:RELATES_TO]-(a:Article)
RETURN a.id as id, a.number as number, a.title as title
ORDER BY a.number`

func NewGraphService(cfg config.Neo4jConfig, log *logger.Logger) (*GraphService, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, driver.VerifyConnectivity(ctx)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(5))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Neo4j: %w", err)
	}

	log.Info("Graph Service Initialized Successfully", "uri", cfg.URI)

	return &GraphService{driver: driver, logger: log}, nil
}

// GetArticleDetails returns the article with its obligations, terms, topics
// and cross-references, or nil when the article does not exist.
func (service *GraphService) GetArticleDetails(ctx context.Context, articleID string) (*models.ArticleDetails, error) {
	startTime := time.Now()

	session := service.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, articleDetailsQuery, map[string]any{"article_id": articleID})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		service.logger.LogService("graph", "get_article_details", time.Since(startTime), map[string]interface{}{
			"article_id": articleID,
		}, err)
		return nil, models.WrapExternalError("NEO4J", err)
	}

	records := result.([]*neo4j.Record)
	if len(records) == 0 {
		return nil, nil
	}
	record := records[0]

	nodeValue, found := record.Get("a")
	if !found || nodeValue == nil {
		return nil, nil
	}
	node := nodeValue.(dbtype.Node)

	details := &models.ArticleDetails{
		ID:          stringProp(node.Props, "id"),
		Number:      intProp(node.Props, "number"),
		Title:       stringProp(node.Props, "title"),
		Obligations: []models.Obligation{},
		Terms:       []models.Term{},
		Topics:      []string{},
		References:  []models.ArticleRef{},
	}

	for _, entry := range listValue(record, "obligations") {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		summary, _ := m["summary"].(string)
		if summary == "" {
			continue
		}
		role, _ := m["role"].(string)
		details.Obligations = append(details.Obligations, models.Obligation{Summary: summary, Role: role})
	}

	for _, entry := range listValue(record, "terms") {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		term, _ := m["term"].(string)
		if term == "" {
			continue
		}
		definition, _ := m["definition"].(string)
		details.Terms = append(details.Terms, models.Term{Term: term, Definition: definition})
	}

	for _, entry := range listValue(record, "topics") {
		if topic, ok := entry.(string); ok && topic != "" {
			details.Topics = append(details.Topics, topic)
		}
	}

	for _, entry := range listValue(record, "references") {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		id, _ := m["id"].(string)
		if id == "" {
			continue
		}
		details.References = append(details.References, models.ArticleRef{
			ID:     id,
			Number: toInt(m["number"]),
		})
	}

	service.logger.LogService("graph", "get_article_details", time.Since(startTime), map[string]interface{}{
		"article_id":        articleID,
		"obligations_count": len(details.Obligations),
		"terms_count":       len(details.Terms),
	}, nil)

	return details, nil
}

// GetAllTopics returns every topic name, alphabetically.
func (service *GraphService) GetAllTopics(ctx context.Context) ([]string, error) {
	startTime := time.Now()

	session := service.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, allTopicsQuery, nil)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		service.logger.LogService("graph", "get_all_topics", time.Since(startTime), nil, err)
		return nil, models.WrapExternalError("NEO4J", err)
	}

	records := result.([]*neo4j.Record)
	topics := make([]string, 0, len(records))
	for _, record := range records {
		if name, found := record.Get("name"); found {
			if topic, ok := name.(string); ok {
				topics = append(topics, topic)
			}
		}
	}

	service.logger.LogService("graph", "get_all_topics", time.Since(startTime), map[string]interface{}{
		"topics_count": len(topics),
	}, nil)

	return topics, nil
}

// GetArticlesByTopic returns articles tagged with the topic, ordered by
// article number. An unknown topic yields an empty slice, not an error.
func (service *GraphService) GetArticlesByTopic(ctx context.Context, topic string) ([]models.TopicArticle, error) {
	startTime := time.Now()

	session := service.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, articlesByTopicQuery, map[string]any{"topic": topic})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		service.logger.LogService("graph", "get_articles_by_topic", time.Since(startTime), map[string]interface{}{
			"topic": topic,
		}, err)
		return nil, models.WrapExternalError("NEO4J", err)
	}

	records := result.([]*neo4j.Record)
	articles := make([]models.TopicArticle, 0, len(records))
	for _, record := range records {
		article := models.TopicArticle{}
		if id, found := record.Get("id"); found {
			article.ID, _ = id.(string)
		}
		if number, found := record.Get("number"); found {
			article.Number = toInt(number)
		}
		if title, found := record.Get("title"); found {
			article.Title, _ = title.(string)
		}
		articles = append(articles, article)
	}

	service.logger.LogService("graph", "get_articles_by_topic", time.Since(startTime), map[string]interface{}{
		"topic":          topic,
		"articles_count": len(articles),
	}, nil)

	return articles, nil
}

func (service *GraphService) HealthCheck(ctx context.Context) error {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := service.driver.VerifyConnectivity(healthCtx); err != nil {
		return fmt.Errorf("graph connection unhealthy: %w", err)
	}
	return nil
}

func (service *GraphService) Close(ctx context.Context) error {
	if err := service.driver.Close(ctx); err != nil {
		return fmt.Errorf("close Neo4j driver failed: %w", err)
	}
	service.logger.Info("Graph Service Closed Successfully")
	return nil
}

func listValue(record *neo4j.Record, key string) []any {
	value, found := record.Get(key)
	if !found {
		return nil
	}
	list, _ := value.([]any)
	return list
}

func stringProp(props map[string]any, key string) string {
	value, _ := props[key].(string)
	return value
}

func intProp(props map[string]any, key string) int {
	return toInt(props[key])
}

// Neo4j integers arrive as int64.
func toInt(value any) int {
	switch v := value.(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
