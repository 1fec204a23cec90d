package model

type AttributeType string

const (
	AttributeTypeText   AttributeType = "text"
	AttributeTypeNumber AttributeType = "number"
	AttributeTypeChoice AttributeType = "choice"
	AttributeTypeSwitch AttributeType = "switch"
)

// HasChoices reports whether choices may be attached to the type.
func (t AttributeType) HasChoices() bool {
	return t == AttributeTypeChoice || t == AttributeTypeSwitch
}

type UsageRange struct {
	ID       int64  `json:"id"`
	UniqueID int    `json:"unique_id"`
	Name     string `json:"name"`
}

type AttributeChoice struct {
	ID    int64  `json:"id"`
	Value string `json:"value"`
}

type Attribute struct {
	ID          int64             `json:"id"`
	UniqueName  string            `json:"unique_name"`
	DisplayName string            `json:"display_name"`
	DataType    AttributeType     `json:"data_type"`
	IsRequired  bool              `json:"is_required"`
	Choices     []AttributeChoice `json:"choices,omitempty"`
}

type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID         int64
	Name       string
	Icon       string
	ParentID   *int64
	MinUsageID *int64
	MaxUsageID *int64
}

type Region struct {
	ID        int64
	Name      string
	ParentID  *int64
	Latitude  *float64
	Longitude *float64
}
