package server

import (
	"encoding/json"
	"testing"
)

func toolByName(t *testing.T, name string) Tool {
	t.Helper()
	for _, tool := range GetToolDefinitions() {
		if tool.Name == name {
			return tool
		}
	}
	t.Fatalf("tool %s not found", name)
	return Tool{}
}

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) == 0 {
		t.Fatal("GetToolDefinitions returned empty slice")
	}

	expectedTools := []string{
		"mrz_prepare",
		"mrz_scan",
		"mrz_decode",
		"visa_assess",
		"visa_rules_info",
		"visa_rules_reload",
		"ocr_info",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("Duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("Tool count: got %d, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema == nil {
				t.Fatal("Tool InputSchema is nil")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			if _, ok := tool.InputSchema["properties"].(map[string]interface{}); !ok {
				t.Error("InputSchema properties should be a map")
			}

			// Schemas are sent to clients as JSON
			if _, err := json.Marshal(tool); err != nil {
				t.Errorf("tool does not marshal: %v", err)
			}
		})
	}
}

func TestToolDefinitions_RequiredPath(t *testing.T) {
	for _, name := range []string{"mrz_prepare", "mrz_scan"} {
		t.Run(name, func(t *testing.T) {
			required, ok := toolByName(t, name).InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}

			hasPath := false
			for _, r := range required {
				if r == "path" {
					hasPath = true
				}
			}
			if !hasPath {
				t.Error("Tool should require 'path' parameter")
			}
		})
	}
}

func TestToolDefinitions_StayTypeEnum(t *testing.T) {
	for _, name := range []string{"mrz_scan", "visa_assess"} {
		t.Run(name, func(t *testing.T) {
			props := toolByName(t, name).InputSchema["properties"].(map[string]interface{})
			stay, ok := props["stay_type"].(map[string]interface{})
			if !ok {
				t.Fatal("stay_type property should exist and be a map")
			}
			enum, ok := stay["enum"].([]string)
			if !ok {
				t.Fatal("stay_type should have enum")
			}
			if len(enum) != 2 || enum[0] != "short" || enum[1] != "long" {
				t.Errorf("stay_type enum: got %v", enum)
			}
		})
	}

	required := toolByName(t, "visa_assess").InputSchema["required"].([]string)
	if len(required) != 1 || required[0] != "stay_type" {
		t.Errorf("visa_assess required: got %v, want [stay_type]", required)
	}
}

func TestToolDefinitions_PrepareDefaults(t *testing.T) {
	props := toolByName(t, "mrz_prepare").InputSchema["properties"].(map[string]interface{})

	expected := map[string]bool{"full_frame": false, "include_image": true}
	for param, want := range expected {
		p, ok := props[param].(map[string]interface{})
		if !ok {
			t.Errorf("%s: parameter not found", param)
			continue
		}
		if got, ok := p["default"].(bool); !ok || got != want {
			t.Errorf("%s: default got %v, want %v", param, p["default"], want)
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s := New(Options{})
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
	}

	resp := s.handleToolsList(req)

	if resp == nil {
		t.Fatal("handleToolsList returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(toolsList) != len(GetToolDefinitions()) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(GetToolDefinitions()))
	}
}
