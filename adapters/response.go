package adapters

import (
	"encoding/json"
	"fmt"
	"regexp"
)

var (
	uuidPattern    = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	numericPattern = regexp.MustCompile(`"(?:lead_?id|id)"\s*:\s*(\d+)`)
)

// idFieldNames are tried in order against the decoded response, both at the
// top level and nested under "data".
var idFieldNames = []string{"lead_id", "leadId", "id"}

// ExtractExternalID pulls the advertiser's lead identifier out of a delivery
// response, best effort. Structured JSON fields win, then a UUID-shaped
// substring, then a bare numeric id. An empty return is fine; not every
// advertiser echoes an id.
func ExtractExternalID(body string) string {
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(body), &decoded); err == nil {
		if id := idFromObject(decoded); id != "" {
			return id
		}
		if data, ok := decoded["data"].(map[string]interface{}); ok {
			if id := idFromObject(data); id != "" {
				return id
			}
		}
	}

	if match := uuidPattern.FindString(body); match != "" {
		return match
	}

	if match := numericPattern.FindStringSubmatch(body); len(match) == 2 {
		return match[1]
	}

	return ""
}

func idFromObject(obj map[string]interface{}) string {
	for _, name := range idFieldNames {
		v, ok := obj[name]
		if !ok {
			continue
		}
		switch id := v.(type) {
		case string:
			if id != "" {
				return id
			}
		case float64:
			return fmt.Sprintf("%.0f", id)
		}
	}
	return ""
}
