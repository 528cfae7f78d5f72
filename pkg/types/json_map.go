package types

// JSONMap is a free-form JSON object persisted via the GORM json serializer.
type JSONMap map[string]any
