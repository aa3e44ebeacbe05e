// Package classify maps tool invocations to coarse system and action
// types. Pure lookup-table code: no state, no I/O, total over all
// inputs.
package classify

import (
	"encoding/json"
	"strings"
)

// SystemType is the coarse category of external system a tool touches.
type SystemType string

const (
	SystemWeb           SystemType = "web"
	SystemCodeHosting   SystemType = "code_hosting"
	SystemChat          SystemType = "chat"
	SystemEmail         SystemType = "email"
	SystemDocumentStore SystemType = "document_store"
	SystemKnowledgeBase SystemType = "knowledge_base"
	SystemTicketing     SystemType = "ticketing"
	SystemInternalDB    SystemType = "internal_db"
	SystemUnknown       SystemType = "unknown"
)

// ActionType is the coarse verb of a tool invocation, named
// schema.org-style.
type ActionType string

const (
	ActionSearch      ActionType = "SearchAction"
	ActionRead        ActionType = "ReadAction"
	ActionWrite       ActionType = "WriteAction"
	ActionCreate      ActionType = "CreateAction"
	ActionUpdate      ActionType = "UpdateAction"
	ActionDelete      ActionType = "DeleteAction"
	ActionCommunicate ActionType = "CommunicateAction"
)

// toolSystems is the static tool-name lookup, checked before any
// keyword heuristics.
var toolSystems = map[string]SystemType{
	"web_search":           SystemWeb,
	"web_fetch":            SystemWeb,
	"browser_navigate":     SystemWeb,
	"browser_click":        SystemWeb,
	"github_search_code":   SystemCodeHosting,
	"github_read_file":     SystemCodeHosting,
	"github_create_issue":  SystemCodeHosting,
	"github_create_pr":     SystemCodeHosting,
	"gitlab_create_mr":     SystemCodeHosting,
	"git_clone":            SystemCodeHosting,
	"slack_post_message":   SystemChat,
	"slack_read_channel":   SystemChat,
	"slack_search":         SystemChat,
	"send_email":           SystemEmail,
	"read_email":           SystemEmail,
	"search_email":         SystemEmail,
	"drive_search":         SystemDocumentStore,
	"drive_read_file":      SystemDocumentStore,
	"upload_document":      SystemDocumentStore,
	"notion_search":        SystemKnowledgeBase,
	"notion_read_page":     SystemKnowledgeBase,
	"confluence_search":    SystemKnowledgeBase,
	"jira_create_issue":    SystemTicketing,
	"jira_search":          SystemTicketing,
	"linear_create_issue":  SystemTicketing,
	"read_project_context": SystemInternalDB,
	"query_database":       SystemInternalDB,
}

// systemKeywords is scanned in order against the serialized parameters;
// the first group with a hit wins.
var systemKeywords = []struct {
	system   SystemType
	keywords []string
}{
	{SystemCodeHosting, []string{"github", "gitlab", "bitbucket", "pull request", "merge request", "repository"}},
	{SystemChat, []string{"slack", "discord", "mattermost", "channel"}},
	{SystemEmail, []string{"gmail", "outlook", "smtp", "mailto", "email"}},
	{SystemDocumentStore, []string{"drive", "dropbox", "sharepoint", "spreadsheet", "document"}},
	{SystemTicketing, []string{"jira", "linear", "asana", "ticket", "issue"}},
	{SystemKnowledgeBase, []string{"notion", "confluence", "wiki"}},
}

// actionKeywords is scanned in order against the tool name; first
// substring match wins.
var actionKeywords = []struct {
	keyword string
	action  ActionType
}{
	{"search", ActionSearch},
	{"read", ActionRead},
	{"write", ActionWrite},
	{"create", ActionCreate},
	{"update", ActionUpdate},
	{"delete", ActionDelete},
	{"navigate", ActionRead},
	{"list", ActionSearch},
	{"get", ActionRead},
	{"post", ActionCommunicate},
	{"patch", ActionUpdate},
	{"send", ActionCommunicate},
}

// System classifies which external system a tool call touches. Static
// tool names win; otherwise the serialized parameters are scanned for
// ecosystem keywords in priority order.
func System(toolName string, params map[string]any) SystemType {
	if system, ok := toolSystems[toolName]; ok {
		return system
	}

	haystack := strings.ToLower(serialize(params))
	for _, group := range systemKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(haystack, kw) {
				return group.system
			}
		}
	}
	return SystemUnknown
}

// Action classifies the verb of a tool call from its name, falling back
// to telltale parameter keys. Defaults to a search.
func Action(toolName string, params map[string]any) ActionType {
	name := strings.ToLower(toolName)
	for _, m := range actionKeywords {
		if strings.Contains(name, m.keyword) {
			return m.action
		}
	}

	if _, ok := params["query"]; ok {
		return ActionSearch
	}
	if _, ok := params["search"]; ok {
		return ActionSearch
	}
	if _, ok := params["create"]; ok {
		return ActionCreate
	}
	if _, ok := params["add"]; ok {
		return ActionCreate
	}
	return ActionSearch
}

func serialize(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	data, err := json.Marshal(params)
	if err != nil {
		return ""
	}
	return string(data)
}
