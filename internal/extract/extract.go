// Package extract pulls typed entities out of tool parameters and
// result text with cheap regex heuristics. Best-effort by design:
// malformed input contributes nothing, it never errors.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Type is the schema.org-style category of an extracted entity.
type Type string

const (
	TypePerson               Type = "Person"
	TypeOrganization         Type = "Organization"
	TypeSoftwareSourceCode   Type = "SoftwareSourceCode"
	TypeCommunicationChannel Type = "CommunicationChannel"
	TypeDigitalDocument      Type = "DigitalDocument"
	TypeSoftwareApplication  Type = "SoftwareApplication"
)

// Entity is one extracted sighting. Provenance records which pattern
// produced it.
type Entity struct {
	Type       Type   `json:"type"`
	Name       string `json:"name"`
	Provenance string `json:"provenance"`
}

const (
	maxEntities   = 20
	maxResultScan = 2000
)

var (
	emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	handleRe   = regexp.MustCompile(`\B@([A-Za-z0-9_]{2,})`)
	hostedRe   = regexp.MustCompile(`(?:github\.com|gitlab\.com|bitbucket\.org)/([A-Za-z0-9_.-]+/[A-Za-z0-9_-]+)`)
	bareRepoRe = regexp.MustCompile(`(?:^|[\s"'(\[,])([A-Za-z][A-Za-z0-9_-]*/[A-Za-z0-9][A-Za-z0-9._-]*)\b`)
	channelRe  = regexp.MustCompile(`#[A-Za-z0-9_]{2,}`)
	urlRe      = regexp.MustCompile(`https?://([A-Za-z0-9.-]+)`)
	docRe      = regexp.MustCompile(`(?i)\b[\w][\w-]*\.(?:pdf|docx?|xlsx?|csv|md|txt|pptx?)\b`)
)

// Entities scans the serialized parameters plus the first 2000
// characters of the result text and returns up to 20 deduplicated
// entities.
func Entities(toolName string, params map[string]any, result string) []Entity {
	var sb strings.Builder
	if len(params) > 0 {
		if data, err := json.Marshal(params); err == nil {
			sb.Write(data)
		}
	}
	sb.WriteByte(' ')
	if len(result) > maxResultScan {
		result = result[:maxResultScan]
	}
	sb.WriteString(result)
	text := sb.String()

	c := &collector{seen: make(map[string]bool)}

	for _, m := range emailRe.FindAllString(text, -1) {
		c.add(TypePerson, personNameFromEmail(m), "email")
	}
	// \B keeps the local-part "@" of already-matched emails from
	// re-matching as a mention.
	for _, m := range handleRe.FindAllStringSubmatch(text, -1) {
		c.add(TypePerson, m[1], "mention")
	}
	for _, m := range hostedRe.FindAllStringSubmatch(text, -1) {
		c.add(TypeSoftwareSourceCode, m[1], "repository")
	}
	for _, m := range bareRepoRe.FindAllStringSubmatch(text, -1) {
		c.add(TypeSoftwareSourceCode, m[1], "repository")
	}
	for _, m := range channelRe.FindAllString(text, -1) {
		c.add(TypeCommunicationChannel, m, "channel")
	}
	for _, m := range urlRe.FindAllStringSubmatch(text, -1) {
		c.add(TypeSoftwareApplication, m[1], "url")
	}
	for _, m := range docRe.FindAllString(text, -1) {
		c.add(TypeDigitalDocument, m, "filename")
	}

	return c.entities
}

// collector accumulates entities, dropping duplicates by lower-cased
// name (first occurrence wins) and stopping at the cap.
type collector struct {
	entities []Entity
	seen     map[string]bool
}

func (c *collector) add(typ Type, name, provenance string) {
	if len(c.entities) >= maxEntities {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	key := strings.ToLower(name)
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.entities = append(c.entities, Entity{Type: typ, Name: name, Provenance: provenance})
}

// personNameFromEmail turns "john.doe@example.com" into "John Doe":
// the local part, separators replaced with spaces, title-cased.
func personNameFromEmail(email string) string {
	local := email[:strings.Index(email, "@")]
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+' || r == '%'
	})
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
	}
	return strings.Join(parts, " ")
}
