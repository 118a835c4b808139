package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
)

type ruleRequest struct {
	PatternType string `binding:"omitempty,pattern_type"`
	MatchField  string `binding:"omitempty,match_field"`
	Status      string `binding:"omitempty,match_status"`
	AccountType string `binding:"omitempty,account_type"`
}

func TestRegister(t *testing.T) {
	Register()

	tests := []struct {
		name  string
		req   ruleRequest
		valid bool
	}{
		{"empty", ruleRequest{}, true},
		{"valid values", ruleRequest{PatternType: "regex", MatchField: "description", Status: "pending", AccountType: "maatschap"}, true},
		{"unknown pattern type", ruleRequest{PatternType: "fuzzy"}, false},
		{"unknown match field", ruleRequest{MatchField: "amount"}, false},
		{"unknown status", ruleRequest{Status: "open"}, false},
		{"unknown account type", ruleRequest{AccountType: "savings"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&tt.req)
			if (err == nil) != tt.valid {
				t.Errorf("expected valid=%v, got error %v", tt.valid, err)
			}
		})
	}
}
