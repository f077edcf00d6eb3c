package rule

import (
	"encoding/json"
	"fmt"
	"time"
)

type decoder func(data []byte) (Rule, error)

// decoders is the tag table. Adding a variant means adding a Type constant,
// the variant itself and an entry here.
var decoders = map[Type]decoder{
	TypeExtension:    decodeExtension,
	TypeCategory:     decodeCategory,
	TypeNameContains: decodeNameContains,
	TypeContent:      decodeContent,
	TypeLastAccessed: decodeLastAccessed,
}

// Marshal encodes a rule into its tagged JSON record.
func Marshal(r Rule) (json.RawMessage, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil rule", ErrInvalidRule)
	}
	data, err := json.Marshal(r.record())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rule '%s': %w", r.Type(), err)
	}
	return data, nil
}

// Unmarshal decodes a tagged JSON record. Records with an unrecognized tag
// fail with ErrUnknownRuleType.
func Unmarshal(data []byte) (Rule, error) {
	var header struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("failed to read rule record: %w", err)
	}

	decode, ok := decoders[header.Type]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownRuleType, header.Type)
	}

	r, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode '%s': %w", header.Type, err)
	}
	return r, nil
}

func decodeExtension(data []byte) (Rule, error) {
	var rec extensionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return NewExtensionRule(rec.Extensions...)
}

func decodeCategory(data []byte) (Rule, error) {
	var rec categoryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return NewCategoryRule(string(rec.Category))
}

func decodeNameContains(data []byte) (Rule, error) {
	var rec textRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return NewNameContainsRule(rec.Substring, rec.CaseSensitive, rec.UseRegex)
}

func decodeContent(data []byte) (Rule, error) {
	var rec textRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return NewContentContainsRule(rec.Substring, rec.CaseSensitive, rec.UseRegex)
}

// decodeLastAccessed picks the variant from the attribute present: "days"
// for the relative form, "Time" for the legacy absolute form.
func decodeLastAccessed(data []byte) (Rule, error) {
	var rec struct {
		Days *int64 `json:"days"`
		Time *int64 `json:"Time"`
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	switch {
	case rec.Days != nil:
		return NewLastAccessedRule(*rec.Days)
	case rec.Time != nil:
		return NewAccessedAfterRule(time.UnixMilli(*rec.Time)), nil
	default:
		return nil, fmt.Errorf("%w: either 'days' or 'Time' is required", ErrInvalidRule)
	}
}
