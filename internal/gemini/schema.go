package gemini

import "github.com/deusflow/headlines/internal/news"

// Schema is the subset of the Gemini response schema used for NewsItem arrays.
type Schema struct {
	Type             string             `json:"type"`
	Properties       map[string]*Schema `json:"properties,omitempty"`
	Items            *Schema            `json:"items,omitempty"`
	Enum             []string           `json:"enum,omitempty"`
	Required         []string           `json:"required,omitempty"`
	PropertyOrdering []string           `json:"propertyOrdering,omitempty"`
}

const (
	TypeArray  = "ARRAY"
	TypeObject = "OBJECT"
	TypeString = "STRING"
)

// NewsItemsSchema describes an array of NewsItem. The significance field is
// only requested when the model is asked to rate stories.
func NewsItemsSchema(withSignificance bool) *Schema {
	link := &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"publisher": {Type: TypeString},
			"link":      {Type: TypeString},
		},
		Required:         []string{"publisher", "link"},
		PropertyOrdering: []string{"publisher", "link"},
	}

	item := &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"title":   {Type: TypeString},
			"summary": {Type: TypeString},
			"links":   {Type: TypeArray, Items: link},
		},
		Required:         []string{"title", "summary", "links"},
		PropertyOrdering: []string{"title", "summary", "links"},
	}
	if withSignificance {
		item.Properties["significance"] = &Schema{Type: TypeString, Enum: news.Significances()}
		item.Required = append(item.Required, "significance")
		item.PropertyOrdering = []string{"title", "summary", "significance", "links"}
	}

	return &Schema{Type: TypeArray, Items: item}
}
