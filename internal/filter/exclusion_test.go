package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsExcluded(t *testing.T) {
	f := New()

	tests := []struct {
		name     string
		title    string
		company  string
		body     string
		excluded bool
		reason   string
	}{
		{
			name:     "headhunter in title",
			title:    "Headhunter recruits for client",
			excluded: true,
			reason:   ReasonIntermediary,
		},
		{
			name:     "staffing terms in korean company name",
			title:    "경영지원 담당자",
			company:  "OO 서치펌",
			excluded: true,
			reason:   ReasonIntermediary,
		},
		{
			name:     "overseas office in body",
			title:    "백엔드 개발자",
			company:  "클린컴퍼니",
			body:     "remote work, Vietnam office",
			excluded: true,
			reason:   ReasonOverseas,
		},
		{
			name:     "clean domestic posting passes",
			title:    "서버 개발자",
			company:  "깨끗한회사",
			body:     "서울 근무, 자사 서비스 개발",
			excluded: false,
		},
		{
			name:     "case insensitive match",
			title:    "Global Recruiting Team RECRUITER",
			excluded: true,
			reason:   ReasonIntermediary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			excluded, reason := f.IsExcluded(tt.title, tt.company, tt.body)
			assert.Equal(t, tt.excluded, excluded)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestIsExcluded_ConfiguredKeywords(t *testing.T) {
	f := New("병역특례", " ")

	excluded, reason := f.IsExcluded("백엔드 개발자 (병역특례 가능)", "회사", "")
	assert.True(t, excluded)
	assert.Equal(t, ReasonConfigured, reason)

	excluded, _ = f.IsExcluded("백엔드 개발자", "회사", "")
	assert.False(t, excluded)
}
