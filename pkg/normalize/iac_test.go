package normalize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scantriage/scantriage/pkg/finding"
)

const checkovReport = `{
  "check_type": "terraform",
  "results": {
    "passed_checks": [
      {"check_id": "CKV_AWS_19", "file_path": "/main.tf"}
    ],
    "failed_checks": [
      {
        "check_id": "CKV_AWS_20",
        "check_name": "Ensure the S3 bucket does not allow READ permissions to everyone",
        "file_path": "/infra/storage.tf",
        "file_line_range": [14, 22],
        "resource": "aws_s3_bucket.reports",
        "severity": "HIGH",
        "code_block": [
          [14, "resource \"aws_s3_bucket\" \"reports\" {"],
          [15, "  acl = \"public-read\""]
        ],
        "guideline": "https://docs.example.com/ckv-aws-20"
      }
    ],
    "skipped_checks": []
  }
}`

func TestNormalizeCheckov(t *testing.T) {
	t.Parallel()

	src := testSource()
	src.Scanner = "checkov"
	findings, err := Normalize(finding.KindIaC, src, []byte(checkovReport))
	require.NoError(t, err)
	require.Len(t, findings, 1, "only failed checks become findings")

	f := findings[0]
	assert.Equal(t, finding.KindIaC, f.Kind)
	assert.Equal(t, "CKV_AWS_20", f.RuleID)
	assert.Equal(t, "infra/storage.tf", f.FilePath, "scan-root slash must be stripped")
	assert.Equal(t, 14, f.StartLine)
	assert.Equal(t, 22, f.EndLine)
	assert.Equal(t, "HIGH", f.RawSeverity)
	assert.Equal(t, []string{
		"aws_s3_bucket.reports",
		`resource "aws_s3_bucket" "reports" {`,
		`  acl = "public-read"`,
	}, f.Evidence)
	assert.Equal(t, "aws_s3_bucket.reports", f.Metadata["resource"])
	assert.Equal(t, "terraform", f.Metadata["check_type"])
}

const tfsecReport = `{
  "results": [
    {
      "rule_id": "AWS017",
      "long_id": "aws-s3-enable-bucket-encryption",
      "description": "Bucket does not have encryption enabled",
      "severity": "HIGH",
      "resource": "aws_s3_bucket.reports",
      "location": {"filename": "infra/storage.tf", "start_line": 14, "end_line": 22}
    }
  ]
}`

func TestNormalizeTfsec(t *testing.T) {
	t.Parallel()

	src := testSource()
	src.Scanner = "tfsec"
	findings, err := Normalize(finding.KindIaC, src, []byte(tfsecReport))
	require.NoError(t, err)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, "aws-s3-enable-bucket-encryption", f.RuleID, "long id preferred over short")
	assert.Equal(t, "infra/storage.tf", f.FilePath)
	assert.Equal(t, "HIGH", f.RawSeverity)
	assert.Equal(t, []string{
		"aws_s3_bucket.reports",
		"Bucket does not have encryption enabled",
	}, f.Evidence)
}

func TestNormalizeIaCMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"results": {`},
		{"checkov missing check id", `{"results": {"failed_checks": [{"file_path": "/main.tf"}]}}`},
		{"tfsec missing rule id", `{"results": [{"location": {"filename": "main.tf"}}]}`},
		{"tfsec missing location", `{"results": [{"rule_id": "AWS017"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Normalize(finding.KindIaC, testSource(), []byte(tt.doc))
			var malErr *MalformedInputError
			require.True(t, errors.As(err, &malErr), "want *MalformedInputError, got %v", err)
			assert.Equal(t, finding.KindIaC, malErr.Kind)
		})
	}
}

func TestCodeBlockLines(t *testing.T) {
	t.Parallel()

	block := [][]any{
		{float64(14), "resource {"},
		{float64(15), "}"},
		{float64(16)}, // short pair, skipped
	}
	assert.Equal(t, []string{"resource {", "}"}, codeBlockLines(block))
	assert.Empty(t, codeBlockLines(nil))
}
