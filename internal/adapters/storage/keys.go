// internal/adapters/storage/keys.go
package storage

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Object key prefixes
const (
	EvidencePrefix = "evidence/"
	ReportPrefix   = "reports/"
)

// EvidenceKey builds evidence/{business_id}/{yyyy/mm/dd}/{uuid}{ext}
func EvidenceKey(businessID uuid.UUID, now time.Time, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s%s/%s/%s%s",
		EvidencePrefix, businessID, now.UTC().Format("2006/01/02"), uuid.New(), ext)
}

// BusinessEvidencePrefix is the prefix holding every evidence object of a business
func BusinessEvidencePrefix(businessID uuid.UUID) string {
	return EvidencePrefix + businessID.String() + "/"
}

// OwnsEvidence reports whether key lies under the business's evidence prefix
func OwnsEvidence(businessID uuid.UUID, key string) bool {
	return strings.HasPrefix(key, BusinessEvidencePrefix(businessID)) && !strings.Contains(key, "..")
}

// VarianceReportKey builds reports/{business_id}/variance-{timestamp}.xlsx
func VarianceReportKey(businessID uuid.UUID, now time.Time) string {
	return fmt.Sprintf("%s%s/variance-%s.xlsx", ReportPrefix, businessID, now.UTC().Format("20060102-150405"))
}
