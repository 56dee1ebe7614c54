// Package record defines the output record shared by the JSONL and Parquet writers.
package record

import (
	"github.com/go-playground/validator/v10"
)

// Record is one extracted page. Field order fixes the JSONL key order;
// the parquet tags define the columnar schema used for shards and the
// merged dataset file.
type Record struct {
	Text         string   `json:"text" parquet:"name=text, type=BYTE_ARRAY, convertedtype=UTF8" validate:"required"`
	Title        string   `json:"title" parquet:"name=title, type=BYTE_ARRAY, convertedtype=UTF8" validate:"required"`
	PageID       int64    `json:"page_id" parquet:"name=page_id, type=INT64" validate:"gt=0"`
	Ns           int32    `json:"ns" parquet:"name=ns, type=INT32"`
	SectionTexts []string `json:"section_texts" parquet:"name=section_texts, type=LIST, valuetype=BYTE_ARRAY, valueconvertedtype=UTF8"`
}

// Validate checks the record against its field constraints.
func (r *Record) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
