// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package validation

import (
	"testing"
)

type ipPayload struct {
	IP       string `json:"ip" validate:"required,ip"`
	Note     string `json:"note,omitempty" validate:"max=8"`
	Internal string `json:"-" validate:"omitempty,ipv4"`
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() returned different instances")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name     string
		payload  ipPayload
		wantTags []string
		wantMsg  string
	}{
		{"ipv4", ipPayload{IP: "203.0.113.5"}, nil, ""},
		{"ipv6", ipPayload{IP: "2001:db8::1"}, nil, ""},
		{"missing", ipPayload{}, []string{"required"}, "ip is required"},
		{"garbage", ipPayload{IP: "not-an-ip"}, []string{"ip"}, "ip must be a valid IP address"},
		{"two failures", ipPayload{IP: "x", Note: "much too long"}, []string{"ip", "max"}, ""},
		{"non-json field", ipPayload{IP: "10.0.0.1", Internal: "::1"}, []string{"ipv4"}, "Internal must be a valid IPv4 address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verr := ValidateStruct(&tt.payload)
			if len(tt.wantTags) == 0 {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			if len(verr.Errors()) != len(tt.wantTags) {
				t.Fatalf("errors = %+v, want tags %v", verr.Errors(), tt.wantTags)
			}
			for _, tag := range tt.wantTags {
				if !verr.HasTag(tag) {
					t.Errorf("HasTag(%q) = false", tag)
				}
			}
			if tt.wantMsg != "" && verr.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", verr.Error(), tt.wantMsg)
			}
		})
	}
}
