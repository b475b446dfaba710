package maps

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"

	"ltp.dev/ltpgo/utils"
)

// PartialDocument is a struct view over a JSON document. Fields the struct
// does not declare survive a Fill/Sync round trip untouched.
type PartialDocument interface {
	getRaw() []byte
	setRaw([]byte)
}

type BaseDocument struct {
	raw []byte
}

func (doc *BaseDocument) getRaw() []byte {
	return doc.raw
}

func (doc *BaseDocument) setRaw(raw []byte) {
	doc.raw = raw
}

// MarshalJSON returns the whole document, including undeclared fields.
// Call Sync first to flush struct changes.
func (doc *BaseDocument) MarshalJSON() ([]byte, error) {
	if doc.raw == nil {
		return []byte("{}"), nil
	}
	return doc.raw, nil
}

// Fill decodes raw into doc and keeps raw for later merges.
func Fill(doc PartialDocument, raw []byte) error {
	if err := json.Unmarshal(raw, doc); err != nil {
		return err
	}
	doc.setRaw(raw)
	return nil
}

// Sync merges the declared fields of doc into its raw document.
func Sync(doc PartialDocument) error {
	fields, err := declaredFields(doc)
	if err != nil {
		return err
	}
	raw := doc.getRaw()
	if raw == nil {
		raw = []byte("{}")
	}
	merged, err := jsonpatch.MergePatch(raw, fields)
	if err != nil {
		return err
	}
	doc.setRaw(merged)
	return nil
}

// ApplyUpdates runs update on doc and syncs the result. Panics in update
// are returned as errors.
func ApplyUpdates[T PartialDocument](doc T, update func(T)) (err error) {
	if update == nil {
		return nil
	}
	defer utils.RecoverWithError(&err)
	update(doc)
	return Sync(doc)
}

// CopyValues fills to from the raw document of from, dropping every field to
// does not declare.
func CopyValues(from PartialDocument, to PartialDocument) error {
	raw := from.getRaw()
	if raw == nil {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, to); err != nil {
		return err
	}
	fields, err := declaredFields(to)
	if err != nil {
		return err
	}
	to.setRaw(fields)
	return nil
}

func declaredFields(doc interface{}) ([]byte, error) {
	value := reflect.ValueOf(doc)
	if value.Kind() != reflect.Ptr || value.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%T is not a struct pointer", doc)
	}
	value = value.Elem()
	valueType := value.Type()
	fields := map[string]json.RawMessage{}
	for i := 0; i < value.NumField(); i++ {
		fieldInfo := valueType.Field(i)
		tag, ok := fieldInfo.Tag.Lookup("json")
		if !ok || !fieldInfo.IsExported() {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name == "" || name == "-" {
			continue
		}
		b, err := json.Marshal(value.Field(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("got error at field %s: %w", fieldInfo.Name, err)
		}
		fields[name] = b
	}
	return json.Marshal(fields)
}
