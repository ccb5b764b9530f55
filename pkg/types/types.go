// Package types defines the core data structures for the Castgraph knowledge
// graph pipeline: episodes, transcript units, entities, relationships,
// insights, and quotes extracted from podcast transcripts.
package types

// EpisodeStatus represents the overall processing status of an episode.
type EpisodeStatus string

// Episode status constants
const (
	// EpisodePending indicates the episode has been ingested but not processed
	EpisodePending EpisodeStatus = "pending"

	// EpisodeProcessing indicates extraction is currently running
	EpisodeProcessing EpisodeStatus = "processing"

	// EpisodeCompleted indicates every unit was extracted and resolved
	EpisodeCompleted EpisodeStatus = "completed"

	// EpisodeDegraded indicates some units failed extraction but the rest were preserved
	EpisodeDegraded EpisodeStatus = "degraded"

	// EpisodeFailed indicates processing failed entirely
	EpisodeFailed EpisodeStatus = "failed"
)

// Entity type constants
const (
	EntityTypePerson       = "person"
	EntityTypeOrganization = "organization"
	EntityTypeConcept      = "concept"
	EntityTypeProduct      = "product"
	EntityTypeLocation     = "location"
	EntityTypeEvent        = "event"
	EntityTypeTechnology   = "technology"
	EntityTypeBook         = "book"
	EntityTypePodcast      = "podcast"
)

// ValidEntityTypes is a slice of all valid entity types for validation
var ValidEntityTypes = []string{
	EntityTypePerson,
	EntityTypeOrganization,
	EntityTypeConcept,
	EntityTypeProduct,
	EntityTypeLocation,
	EntityTypeEvent,
	EntityTypeTechnology,
	EntityTypeBook,
	EntityTypePodcast,
}

// Relationship type constants
const (
	RelWorksAt      = "works_at"
	RelFounded      = "founded"
	RelFoundedBy    = "founded_by"
	RelInvestedIn   = "invested_in"
	RelCreated      = "created"
	RelCreatedBy    = "created_by"
	RelAdvocates    = "advocates"
	RelCritiques    = "critiques"
	RelCollaborates = "collaborates_with"
	RelCompetesWith = "competes_with"
	RelPartOf       = "part_of"
	RelLocatedIn    = "located_in"
	RelInfluencedBy = "influenced_by"
	RelDiscusses    = "discusses"
	RelAuthored     = "authored"
	RelHostOf       = "host_of"
	RelGuestOn      = "guest_on"
	RelRelatesTo    = "relates_to"
)

// ValidRelationshipTypes is a slice of all valid relationship types for validation
var ValidRelationshipTypes = []string{
	RelWorksAt,
	RelFounded, RelFoundedBy,
	RelInvestedIn,
	RelCreated, RelCreatedBy,
	RelAdvocates,
	RelCritiques,
	RelCollaborates,
	RelCompetesWith,
	RelPartOf,
	RelLocatedIn,
	RelInfluencedBy,
	RelDiscusses,
	RelAuthored,
	RelHostOf, RelGuestOn,
	RelRelatesTo,
}

// Insight type constants - classify the nature of an extracted insight
const (
	InsightTypePrediction       = "prediction"
	InsightTypeOpinion          = "opinion"
	InsightTypeFact             = "fact"
	InsightTypeRecommendation   = "recommendation"
	InsightTypeLessonLearned    = "lesson_learned"
	InsightTypeCounterintuitive = "counterintuitive"
)

// ValidInsightTypes is a slice of all valid insight types for validation
var ValidInsightTypes = []string{
	InsightTypePrediction,
	InsightTypeOpinion,
	InsightTypeFact,
	InsightTypeRecommendation,
	InsightTypeLessonLearned,
	InsightTypeCounterintuitive,
}

// IsValidEntityType checks if the given entity type is valid
func IsValidEntityType(entityType string) bool {
	for _, validType := range ValidEntityTypes {
		if validType == entityType {
			return true
		}
	}
	return false
}

// IsValidRelationshipType checks if the given relationship type is valid
func IsValidRelationshipType(relType string) bool {
	for _, validType := range ValidRelationshipTypes {
		if validType == relType {
			return true
		}
	}
	return false
}

// IsValidInsightType checks if the given insight type is valid
func IsValidInsightType(insightType string) bool {
	for _, validType := range ValidInsightTypes {
		if validType == insightType {
			return true
		}
	}
	return false
}
