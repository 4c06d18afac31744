package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	DefaultQuestion      = "What is the current status of the case?"
	DefaultProcessNumber = int64(1)
)

// AnswerRequest is the resolved input of POST /. Both fields are always set:
// anything the caller left out has already been replaced by its default.
type AnswerRequest struct {
	Question      string `json:"text"`
	ProcessNumber int64  `json:"process_number"`
}

// DecodeAnswerRequest turns a raw webhook body into an AnswerRequest.
// It never fails. An empty or unusable body yields both defaults; a usable
// JSON object defaults each missing field on its own. The returned warnings
// describe every substitution that was not a plain "field absent" case.
func DecodeAnswerRequest(body []byte) (AnswerRequest, []string) {
	req := AnswerRequest{
		Question:      DefaultQuestion,
		ProcessNumber: DefaultProcessNumber,
	}

	var fields map[string]json.RawMessage
	if len(bytes.TrimSpace(body)) == 0 || json.Unmarshal(body, &fields) != nil || len(fields) == 0 {
		return req, []string{"Request body is empty or not JSON. Using default question and process number."}
	}

	var warnings []string

	if raw, ok := fields["text"]; ok {
		var question string
		if err := json.Unmarshal(raw, &question); err != nil || raw == nil || string(raw) == "null" {
			warnings = append(warnings, fmt.Sprintf("Field text is not a string (%s). Using default question.", truncate(string(raw), 64)))
		} else {
			req.Question = question
		}
	}

	if raw, ok := fields["process_number"]; ok {
		n, err := parseProcessNumber(raw)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Field process_number is unusable (%v). Using default process number.", err))
		} else {
			req.ProcessNumber = n
		}
	}

	return req, warnings
}

// parseProcessNumber accepts a JSON integer, an integral float such as 42.0,
// or a string of digits. Conversational agents often send parameters as strings.
func parseProcessNumber(raw json.RawMessage) (int64, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return 0, err
	}

	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n, nil
		}
		f, err := val.Float64()
		if err != nil || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
			return 0, fmt.Errorf("%s is not an integer", val.String())
		}
		return int64(f), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", val)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected JSON type %T", v)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
