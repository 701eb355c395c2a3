package result

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liamcoop/survey/form"
)

type baseDoc struct {
	Identifier string    `json:"identifier"`
	Type       Type      `json:"type"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
}

func (b ResultBase) doc(t Type) baseDoc {
	return baseDoc{Identifier: b.Identifier, Type: t, StartDate: b.StartDate, EndDate: b.EndDate}
}

func (d baseDoc) base() ResultBase {
	return ResultBase{Identifier: d.Identifier, Type: d.Type, StartDate: d.StartDate, EndDate: d.EndDate}
}

func (b ResultBase) MarshalJSON() ([]byte, error) {
	t := b.Type
	if t == "" {
		t = TypeBase
	}
	return json.Marshal(b.doc(t))
}

type answerDoc struct {
	baseDoc
	AnswerType AnswerType      `json:"answerType"`
	Value      json.RawMessage `json:"value,omitempty"`
}

func (r AnswerResult) MarshalJSON() ([]byte, error) {
	doc := answerDoc{baseDoc: r.doc(TypeAnswer), AnswerType: r.AnswerType}
	pattern := r.AnswerType.DateFormat
	if r.AnswerType.IsArray() {
		values := make([]json.RawMessage, 0, len(r.Values))
		for _, v := range r.Values {
			raw, err := v.EncodeWithPattern(pattern)
			if err != nil {
				return nil, err
			}
			values = append(values, raw)
		}
		raw, err := json.Marshal(values)
		if err != nil {
			return nil, err
		}
		doc.Value = raw
	} else if !r.Value.IsAbsent() {
		raw, err := r.Value.EncodeWithPattern(pattern)
		if err != nil {
			return nil, err
		}
		doc.Value = raw
	}
	return json.Marshal(doc)
}

func decodeAnswer(data []byte) (*AnswerResult, error) {
	var doc answerDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: answer result: %v", form.ErrInvalidFormat, err)
	}
	kind := doc.AnswerType.BaseType.Kind()
	if kind == form.KindAbsent {
		return nil, fmt.Errorf("%w: answer result %q: unknown base type %q", form.ErrInvalidType, doc.Identifier, doc.AnswerType.BaseType)
	}
	out := &AnswerResult{ResultBase: doc.base(), AnswerType: doc.AnswerType}
	if len(doc.Value) == 0 || string(doc.Value) == "null" {
		return out, nil
	}
	pattern := doc.AnswerType.DateFormat
	if doc.AnswerType.IsArray() {
		var entries []json.RawMessage
		if err := json.Unmarshal(doc.Value, &entries); err != nil {
			return nil, fmt.Errorf("%w: answer result %q: value must be a list", form.ErrTypeMismatch, doc.Identifier)
		}
		out.Values = make([]form.Value, 0, len(entries))
		for i, entry := range entries {
			v, err := form.DecodeValue(entry, kind, pattern)
			if err != nil {
				return nil, fmt.Errorf("answer result %q value %d: %w", doc.Identifier, i, err)
			}
			out.Values = append(out.Values, v)
		}
		return out, nil
	}
	v, err := form.DecodeValue(doc.Value, kind, pattern)
	if err != nil {
		return nil, fmt.Errorf("answer result %q: %w", doc.Identifier, err)
	}
	out.Value = v
	return out, nil
}

type collectionDoc struct {
	baseDoc
	InputResults []Result `json:"inputResults"`
}

type collectionDecodeDoc struct {
	baseDoc
	InputResults []json.RawMessage `json:"inputResults"`
}

func (c CollectionResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(collectionDoc{baseDoc: c.doc(TypeCollection), InputResults: nonNil(c.InputResults)})
}

func decodeCollection(data []byte) (*CollectionResult, error) {
	var doc collectionDecodeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: collection result: %v", form.ErrInvalidFormat, err)
	}
	inputs, err := decodeList(doc.InputResults)
	if err != nil {
		return nil, fmt.Errorf("collection result %q: %w", doc.Identifier, err)
	}
	return &CollectionResult{ResultBase: doc.base(), InputResults: inputs}, nil
}

type taskDoc struct {
	baseDoc
	TaskRunUUID  uuid.UUID   `json:"taskRunUUID"`
	SchemaInfo   *SchemaInfo `json:"schemaInfo,omitempty"`
	StepHistory  []Result    `json:"stepHistory"`
	AsyncResults []Result    `json:"asyncResults,omitempty"`
}

type taskDecodeDoc struct {
	baseDoc
	TaskRunUUID  uuid.UUID         `json:"taskRunUUID"`
	SchemaInfo   *SchemaInfo       `json:"schemaInfo,omitempty"`
	StepHistory  []json.RawMessage `json:"stepHistory"`
	AsyncResults []json.RawMessage `json:"asyncResults,omitempty"`
}

func (t TaskResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskDoc{
		baseDoc:      t.doc(TypeTask),
		TaskRunUUID:  t.TaskRunUUID,
		SchemaInfo:   t.SchemaInfo,
		StepHistory:  nonNil(t.StepHistory),
		AsyncResults: t.AsyncResults,
	})
}

func decodeTask(data []byte) (*TaskResult, error) {
	var doc taskDecodeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: task result: %v", form.ErrInvalidFormat, err)
	}
	out := &TaskResult{ResultBase: doc.base(), TaskRunUUID: doc.TaskRunUUID, SchemaInfo: doc.SchemaInfo}
	var err error
	if out.StepHistory, err = decodeList(doc.StepHistory); err != nil {
		return nil, fmt.Errorf("task result %q step history: %w", doc.Identifier, err)
	}
	if len(doc.AsyncResults) > 0 {
		if out.AsyncResults, err = decodeList(doc.AsyncResults); err != nil {
			return nil, fmt.Errorf("task result %q async results: %w", doc.Identifier, err)
		}
	}
	return out, nil
}

type fileDoc struct {
	baseDoc
	URL         string   `json:"url,omitempty"`
	ContentType string   `json:"contentType,omitempty"`
	StartUptime *float64 `json:"startUptime,omitempty"`
}

func (f FileResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(fileDoc{baseDoc: f.doc(TypeFile), URL: f.URL, ContentType: f.ContentType, StartUptime: f.StartUptime})
}

// DecodeResult decodes any result document, choosing the variant by its
// type tag. An unknown tag is ErrInvalidType.
func DecodeResult(data []byte) (Result, error) {
	var head struct {
		Type       Type   `json:"type"`
		Identifier string `json:"identifier"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: result must be an object: %v", form.ErrInvalidFormat, err)
	}
	if head.Identifier == "" {
		return nil, fmt.Errorf("%w: result has no identifier", form.ErrMissingRequiredField)
	}
	switch head.Type {
	case TypeBase:
		var doc baseDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", form.ErrInvalidFormat, err)
		}
		b := doc.base()
		return &b, nil
	case TypeAnswer:
		return decodeAnswer(data)
	case TypeCollection:
		return decodeCollection(data)
	case TypeTask:
		return decodeTask(data)
	case TypeFile:
		var doc fileDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", form.ErrInvalidFormat, err)
		}
		return &FileResult{ResultBase: doc.base(), URL: doc.URL, ContentType: doc.ContentType, StartUptime: doc.StartUptime}, nil
	case "":
		return nil, fmt.Errorf("%w: result %q has no type", form.ErrMissingRequiredField, head.Identifier)
	default:
		return nil, fmt.Errorf("%w: unknown result type %q", form.ErrInvalidType, head.Type)
	}
}

// DecodeTaskResult decodes a document that must hold a task result.
func DecodeTaskResult(data []byte) (*TaskResult, error) {
	r, err := DecodeResult(data)
	if err != nil {
		return nil, err
	}
	t, ok := r.(*TaskResult)
	if !ok {
		return nil, fmt.Errorf("%w: expected a task result, got %q", form.ErrTypeMismatch, r.Base().Type)
	}
	return t, nil
}

func decodeList(entries []json.RawMessage) ([]Result, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make([]Result, 0, len(entries))
	for i, entry := range entries {
		r, err := DecodeResult(entry)
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func nonNil(results []Result) []Result {
	if results == nil {
		return []Result{}
	}
	return results
}
