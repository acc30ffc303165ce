package search

// DefaultIndexName is the index holding approved catalog products.
const DefaultIndexName = "shopper_products"

// maxResultWindow is the Elasticsearch default for from+size.
const maxResultWindow = 10000

// indexMapping stores only the fields the catalog filter reads. Names are
// keywords so a case-insensitive wildcard gives a literal substring match.
const indexMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "dynamic": "strict",
    "properties": {
      "id":         { "type": "keyword" },
      "name":       { "type": "keyword", "ignore_above": 1024 },
      "category":   { "type": "keyword" },
      "price":      { "type": "double" },
      "status":     { "type": "keyword" },
      "created_at": { "type": "date" }
    }
  }
}`
