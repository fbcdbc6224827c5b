// Package calls implements the concrete ICP call kinds named in
// SPEC_FULL.md section 4.3, encoded as structpb.Struct payloads.
package calls

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("calls: build payload: %w", err)
	}
	return s, nil
}

func getString(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	if v, ok := s.Fields[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func getNumber(s *structpb.Struct, key string) float64 {
	if s == nil {
		return 0
	}
	if v, ok := s.Fields[key]; ok {
		return v.GetNumberValue()
	}
	return 0
}

func getBool(s *structpb.Struct, key string) bool {
	if s == nil {
		return false
	}
	if v, ok := s.Fields[key]; ok {
		return v.GetBoolValue()
	}
	return false
}

func getUint32(s *structpb.Struct, key string) uint32 {
	return uint32(getNumber(s, key))
}
