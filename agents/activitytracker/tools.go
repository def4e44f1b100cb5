// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package activitytracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-json-experiment/json"
	"google.golang.org/genai"

	"github.com/go-a2a/a2a-samples/internal/spreadsheet"
)

// Tool names exposed to the model.
const (
	ToolAddActivity = "add_activity"
	ToolSaveToExcel = "save_activities_to_excel"
)

// ActivityHeaders are the column titles of a saved workbook.
var ActivityHeaders = []string{"Work Item", "Details", "Due Date", "Progress"}

// activityArgs are the add_activity arguments in column order.
var activityArgs = []string{"work_item", "details", "due_date", "progress"}

var errMissingArgument = errors.New("missing argument")

func stringProp(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

// toolDeclarations describes the tools in the form the model expects.
func toolDeclarations() []*genai.Tool {
	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        ToolAddActivity,
				Description: "Adds a new activity to the tracker.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"work_item": stringProp("What you are working on."),
						"details":   stringProp("Additional details about the work item."),
						"due_date":  stringProp("When the work item is expected to be completed."),
						"progress":  stringProp("The current progress of the work item."),
					},
					Required: activityArgs,
				},
			},
			{
				Name:        ToolSaveToExcel,
				Description: "Saves all tracked activities to an Excel file.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"file_path": stringProp("The path to save the Excel file to."),
					},
					Required: []string{"file_path"},
				},
			},
		},
	}}
}

func argString(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", fmt.Errorf("%w %q", errMissingArgument, name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", name, v)
	}
	return s, nil
}

// callTool runs one function call and returns its response object. Argument
// problems are reported to the model in the response; only store failures are
// returned as errors. An activity with missing fields is answered with a form
// under "result" asking for them.
func (a *Agent) callTool(ctx context.Context, call *genai.FunctionCall) (map[string]any, error) {
	switch call.Name {
	case ToolAddActivity:
		values := make([]string, len(activityArgs))
		var missing []string
		for i, name := range activityArgs {
			v, err := argString(call.Args, name)
			switch {
			case errors.Is(err, errMissingArgument):
				missing = append(missing, name)
			case err != nil:
				return map[string]any{"error": err.Error()}, nil
			}
			values[i] = v
		}
		if len(missing) > 0 {
			return activityForm(values, missing)
		}
		act := Activity{WorkItem: values[0], Details: values[1], DueDate: values[2], Progress: values[3]}
		if err := a.store.Add(ctx, act); err != nil {
			return nil, err
		}
		a.logger.InfoContext(ctx, "activity added", "work_item", act.WorkItem)
		return map[string]any{"status": "Activity added successfully."}, nil

	case ToolSaveToExcel:
		path, err := argString(call.Args, "file_path")
		if err != nil {
			return map[string]any{"error": err.Error()}, nil
		}
		activities, err := a.store.List(ctx)
		if err != nil {
			return nil, err
		}
		if len(activities) == 0 {
			return map[string]any{"status": "No activities to save."}, nil
		}
		rows := make([][]any, len(activities))
		for i, act := range activities {
			rows[i] = act.Row()
		}
		if err := spreadsheet.Write(path, ActivityHeaders, rows); err != nil {
			return map[string]any{"error": err.Error()}, nil
		}
		a.logger.InfoContext(ctx, "activities saved", "path", path, "count", len(rows))
		return map[string]any{"status": "Activities saved to " + path}, nil

	default:
		return map[string]any{"error": fmt.Sprintf("unknown tool %q", call.Name)}, nil
	}
}

// activityForm returns the add_activity response asking for missing fields. The
// form travels JSON encoded under "result", next to the values already given.
func activityForm(values, missing []string) (map[string]any, error) {
	fields := make(map[string]any, len(activityArgs))
	for i, name := range activityArgs {
		fields[name] = values[i]
	}
	b, err := json.Marshal(map[string]any{
		"type":           "form",
		"form":           fields,
		"missing_fields": missing,
		"instructions":   "Provide the missing fields to record the activity.",
	}, json.Deterministic(true))
	if err != nil {
		return nil, fmt.Errorf("encode activity form: %w", err)
	}
	return map[string]any{"result": string(b)}, nil
}
