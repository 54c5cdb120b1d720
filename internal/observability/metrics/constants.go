package metrics

// Operation labels.
const (
	OpGetOrCreate      = "get_or_create"
	OpFindByName       = "find_by_locale_name"
	OpReplaceTags      = "replace_tags"
	OpAddTagByName     = "add_tag_by_name"
	OpTagsForEntity    = "tags_for_entity"
	OpLink             = "link"
	OpUnlink           = "unlink"
	OpUsage            = "usage"
	OpRelatedTags      = "related_tags"
	OpCloud            = "cloud"
	OpMembersWithAll   = "members_with_all"
	OpMembersWithAny   = "members_with_any"
	OpRelatedEntities  = "related_entities"
	OpDeleteEntity     = "delete_entity"
	OpDeleteTag        = "delete_tag"
	OpAliasSuggest     = "alias_suggest"
	OpAliasWrite       = "alias_write"
	OpTagAdmin         = "tag_admin"
	OpCatalogFetch     = "catalog_fetch"
	OpCatalogPredicate = "catalog_predicate"
)

// Status labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Histogram bucket parameters: 1ms doubling to roughly 16s.
const (
	BucketStart1ms = 0.001
	BucketFactor2  = 2
	BucketCount15  = 15
)
