package importapp

import (
	"strings"

	"github.com/estatecrm/backend/internal/domain/record"
	"github.com/estatecrm/backend/internal/domain/taxonomy"
	"github.com/google/uuid"
)

// wellKnownColumns are promoted to named attributes when present in the
// source header. Everything else still survives inside customFields.
var wellKnownColumns = []string{
	"slno",
	"date",
	"name",
	"number",
	"budget",
	"location",
	"expected_location",
	"remark",
	"status",
	"ref",
	"refno",
	"refname",
	"developer",
	"owner_name",
	"owner_number",
	"visited_location",
	"who_visited",
	"size",
	"facilities",
	"unit",
	"duration",
	"price",
}

// classifiedRow pairs one built record with its classification target so the
// breakdown can be labeled per row even when several labels share a model.
type classifiedRow struct {
	rec    *record.Record
	target taxonomy.Target
}

// classifyRow builds the persisted document for one source row. It returns
// the classified row and whether any cell was blank.
func classifyRow(headers []string, row map[string]string, createdBy *uuid.UUID) (classifiedRow, bool) {
	category := row["category"]
	subCategory := row["sub_category"]
	if strings.TrimSpace(subCategory) == "" {
		subCategory = row["subcategory"]
	}
	target := taxonomy.Classify(category, subCategory)

	hadBlank := false
	customFields := map[string]string{}
	for _, h := range headers {
		if isBlank(row[h]) {
			hadBlank = true
		}
		customFields[h] = cellOrSentinel(row[h])
	}

	attrs := record.Attributes{}
	for _, col := range wellKnownColumns {
		if _, ok := row[col]; ok {
			attrs[col] = cellOrSentinel(row[col])
		}
	}
	attrs["category"] = target.Category
	attrs["subCategory"] = target.SubCategory
	attrs["customFields"] = customFields

	rec := record.New(attrs, createdBy)
	return classifiedRow{rec: rec, target: target}, hadBlank
}

func isBlank(v string) bool {
	return strings.TrimSpace(v) == ""
}

func cellOrSentinel(v string) string {
	if isBlank(v) {
		return Sentinel
	}
	return v
}
