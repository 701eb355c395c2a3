package result

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/liamcoop/survey/form"
)

func intAnswer(identifier string, v int64) *AnswerResult {
	r := NewAnswerResult(identifier, AnswerType{BaseType: BaseInteger})
	r.Value = form.Int(v)
	return r
}

// TestAppendStepHistoryReplaces verifies a step appears once, at its latest position
func TestAppendStepHistoryReplaces(t *testing.T) {
	task := NewTaskResult("survey")
	task.AppendStepHistory(NewResultBase("intro"))
	task.AppendStepHistory(intAnswer("age", 30))
	task.AppendStepHistory(intAnswer("age", 31))

	count := 0
	for _, r := range task.StepHistory {
		if r.Base().Identifier == "age" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("age appears %d times in step history, want 1", count)
	}

	answer, ok := task.FindAnswerResult("age")
	if !ok {
		t.Fatal("FindAnswerResult(age) should be found")
	}
	if answer.Value != form.Int(31) {
		t.Errorf("answer = %v, want the latest value 31", answer.Value)
	}

	task.AppendStepHistory(NewResultBase("intro"))
	if got := task.StepHistory[len(task.StepHistory)-1].Base().Identifier; got != "intro" {
		t.Errorf("last step = %q, want intro moved to the end", got)
	}
	if len(task.StepHistory) != 2 {
		t.Errorf("len(StepHistory) = %d, want 2", len(task.StepHistory))
	}
}

// TestFindAnswerResultNested verifies lookup descends into collection results
func TestFindAnswerResultNested(t *testing.T) {
	task := NewTaskResult("survey")
	task.AppendStepHistory(NewResultBase("intro"))

	form1 := NewCollectionResult("demographics")
	form1.AppendInputResults(intAnswer("age", 40))
	form1.AppendInputResults(intAnswer("height", 180))
	task.AppendStepHistory(form1)

	form2 := NewCollectionResult("health")
	form2.AppendInputResults(intAnswer("weight", 70))
	task.AppendStepHistory(form2)

	testCases := []struct {
		id   string
		want int64
		ok   bool
	}{
		{"age", 40, true},
		{"height", 180, true},
		{"weight", 70, true},
		{"intro", 0, false},
		{"missing", 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.id, func(t *testing.T) {
			answer, ok := task.FindAnswerResult(tc.id)
			if ok != tc.ok {
				t.Fatalf("FindAnswerResult(%q) ok = %v, want %v", tc.id, ok, tc.ok)
			}
			if ok && answer.Value != form.Int(tc.want) {
				t.Errorf("FindAnswerResult(%q) = %v, want %d", tc.id, answer.Value, tc.want)
			}
		})
	}

	if r, ok := task.FindResult("health"); !ok || r != Result(form2) {
		t.Errorf("FindResult(health) = %v, %v", r, ok)
	}
	if _, ok := form1.FindAnswerResult("weight"); ok {
		t.Error("a collection should only search its own inputs")
	}
}

// TestCollectionAppendReplaces verifies input results are unique by identifier
func TestCollectionAppendReplaces(t *testing.T) {
	c := NewCollectionResult("step")
	c.AppendInputResults(intAnswer("a", 1))
	c.AppendInputResults(intAnswer("b", 2))
	c.AppendInputResults(intAnswer("a", 3))

	if len(c.InputResults) != 2 {
		t.Fatalf("len(InputResults) = %d, want 2", len(c.InputResults))
	}
	if a, _ := c.FindAnswerResult("a"); a.Value != form.Int(3) {
		t.Errorf("a = %v, want 3", a.Value)
	}
	if _, ok := c.RemoveInputResult("b"); !ok {
		t.Error("RemoveInputResult(b) should succeed")
	}
	if _, ok := c.FindResult("b"); ok {
		t.Error("b should be gone")
	}
}

// TestRemoveStepHistory verifies backward navigation truncates the history
func TestRemoveStepHistory(t *testing.T) {
	task := NewTaskResult("survey")
	for _, id := range []string{"one", "two", "three", "four"} {
		task.AppendStepHistory(NewResultBase(id))
	}

	removed := task.RemoveStepHistory("three")
	if len(removed) != 2 || removed[0].Base().Identifier != "three" || removed[1].Base().Identifier != "four" {
		t.Errorf("removed = %v", removed)
	}
	if len(task.StepHistory) != 2 {
		t.Errorf("len(StepHistory) = %d, want 2", len(task.StepHistory))
	}
	if removed := task.RemoveStepHistory("nope"); removed != nil {
		t.Errorf("RemoveStepHistory(nope) = %v, want nil", removed)
	}

	// The history must not share storage with the removed slice.
	task.AppendStepHistory(NewResultBase("five"))
	if removed[0].Base().Identifier != "three" {
		t.Error("appending after removal overwrote the removed results")
	}
}

// TestAnswerTypeFor verifies answer types derived from input fields
func TestAnswerTypeFor(t *testing.T) {
	decode := func(t *testing.T, doc string) form.Field {
		t.Helper()
		f, err := form.DecodeField([]byte(doc))
		if err != nil {
			t.Fatalf("DecodeField() failed: %v", err)
		}
		return f
	}

	testCases := []struct {
		name string
		doc  string
		want AnswerType
	}{
		{"integer with unit", `{"identifier":"a","dataType":"integer","range":{"unit":"feet"}}`, AnswerType{BaseType: BaseInteger, Unit: "feet"}},
		{"date", `{"identifier":"a","dataType":"date","range":{"codingFormat":"yyyy-MM"}}`, AnswerType{BaseType: BaseDate, DateFormat: "yyyy-MM"}},
		{"year", `{"identifier":"a","dataType":"year","range":{"minimumDate":"1900","codingFormat":"yyyy"}}`, AnswerType{BaseType: BaseInteger}},
		{"single choice", `{"identifier":"a","dataType":"singleChoice.decimal","choices":[1.5]}`, AnswerType{BaseType: BaseDecimal}},
		{"multiple choice", `{"identifier":"a","dataType":"multipleChoice","choices":["x"]}`, AnswerType{BaseType: BaseString, SequenceType: SequenceArray}},
		{"multiple component", `{"identifier":"a","dataType":"multipleComponent.integer","choices":[[1],[2]],"separator":"/"}`, AnswerType{BaseType: BaseInteger, SequenceType: SequenceArray, SequenceSeparator: "/"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AnswerTypeFor(decode(t, tc.doc))
			if err != nil {
				t.Fatalf("AnswerTypeFor() failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("AnswerTypeFor() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

// TestTaskResultJSON verifies a task result survives encode and decode
func TestTaskResultJSON(t *testing.T) {
	task := NewTaskResult("survey")
	task.SchemaInfo = &SchemaInfo{Identifier: "survey-schema", Revision: 3}

	step := NewCollectionResult("form")
	step.AppendInputResults(intAnswer("age", 42))
	colors := NewAnswerResult("colors", AnswerType{BaseType: BaseString, SequenceType: SequenceArray})
	colors.Values = []form.Value{form.String("red"), form.String("blue")}
	step.AppendInputResults(colors)
	born := NewAnswerResult("born", AnswerType{BaseType: BaseDate, DateFormat: "yyyy-MM-dd"})
	born.Value = form.Date(time.Date(1980, 6, 1, 0, 0, 0, 0, time.UTC))
	step.AppendInputResults(born)
	task.AppendStepHistory(step)
	task.AppendAsyncResult(NewFileResult("motion", "file:///tmp/motion.json"))

	data, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("json.Marshal() failed: %v", err)
	}

	decoded, err := DecodeTaskResult(data)
	if err != nil {
		t.Fatalf("DecodeTaskResult() failed: %v", err)
	}
	if decoded.TaskRunUUID != task.TaskRunUUID {
		t.Errorf("TaskRunUUID = %v, want %v", decoded.TaskRunUUID, task.TaskRunUUID)
	}
	if decoded.SchemaInfo == nil || *decoded.SchemaInfo != *task.SchemaInfo {
		t.Errorf("SchemaInfo = %+v", decoded.SchemaInfo)
	}
	if !decoded.StartDate.Equal(task.StartDate) {
		t.Errorf("StartDate = %v, want %v", decoded.StartDate, task.StartDate)
	}

	age, ok := decoded.FindAnswerResult("age")
	if !ok || age.Value != form.Int(42) {
		t.Errorf("age = %+v, %v", age, ok)
	}
	got, ok := decoded.FindAnswerResult("colors")
	if !ok || len(got.Values) != 2 || got.Values[1] != form.String("blue") {
		t.Errorf("colors = %+v, %v", got, ok)
	}
	b, ok := decoded.FindAnswerResult("born")
	if !ok {
		t.Fatal("born should be found")
	}
	if d, _ := b.Value.DateValue(); !d.Equal(time.Date(1980, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("born = %v", b.Value)
	}

	if len(decoded.AsyncResults) != 1 {
		t.Fatalf("len(AsyncResults) = %d, want 1", len(decoded.AsyncResults))
	}
	file, ok := decoded.AsyncResults[0].(*FileResult)
	if !ok || file.URL != "file:///tmp/motion.json" {
		t.Errorf("async result = %+v", decoded.AsyncResults[0])
	}
}

// TestDecodeResultErrors verifies malformed result documents are rejected
func TestDecodeResultErrors(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
		want error
	}{
		{"unknown type", `{"identifier":"a","type":"video"}`, form.ErrInvalidType},
		{"missing type", `{"identifier":"a"}`, form.ErrMissingRequiredField},
		{"missing identifier", `{"type":"base"}`, form.ErrMissingRequiredField},
		{"bad answer value", `{"identifier":"a","type":"answer","answerType":{"baseType":"integer"},"value":"x"}`, form.ErrTypeMismatch},
		{"unknown answer base", `{"identifier":"a","type":"answer","answerType":{"baseType":"color"}}`, form.ErrInvalidType},
		{"nested failure", `{"identifier":"t","type":"task","stepHistory":[{"identifier":"s","type":"nope"}]}`, form.ErrInvalidType},
		{"not an object", `[1,2]`, form.ErrInvalidFormat},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeResult([]byte(tc.doc))
			if !errors.Is(err, tc.want) {
				t.Errorf("DecodeResult() = %v, want %v", err, tc.want)
			}
		})
	}

	if _, err := DecodeTaskResult([]byte(`{"identifier":"a","type":"base"}`)); !errors.Is(err, form.ErrTypeMismatch) {
		t.Errorf("DecodeTaskResult(base) = %v, want ErrTypeMismatch", err)
	}
}
