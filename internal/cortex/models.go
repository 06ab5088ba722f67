package cortex

// Models lists the completion models the assistant can be pointed at.
// The set matches what Cortex COMPLETE accepts on current accounts; the UI
// offers exactly these.
var Models = []string{
	"mixtral-8x7b",
	"snowflake-arctic",
	"mistral-large",
	"llama3-8b",
	"llama3-70b",
	"reka-flash",
	"mistral-7b",
	"llama2-70b-chat",
	"gemma-7b",
}

// DefaultModel is used when no model is configured.
const DefaultModel = "mixtral-8x7b"

// IsValidModel reports whether name is a supported completion model.
func IsValidModel(name string) bool {
	for _, m := range Models {
		if m == name {
			return true
		}
	}
	return false
}
