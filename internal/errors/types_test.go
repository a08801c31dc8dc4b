package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestStudioErrorMessage(t *testing.T) {
	err := NewMalformedTokenError(2, "bad rotation").
		WithContext("field", "rotation")

	assert.Contains(t, err.Error(), "[ERR_MALFORMED_TOKEN]")
	assert.Contains(t, err.Error(), "record:2")
	assert.Contains(t, err.Error(), "bad rotation")
	assert.Equal(t, "rotation", err.Context["field"])
}

func TestStudioErrorWithoutRecord(t *testing.T) {
	err := NewMalformedTokenError(NoRecord, "missing version")

	assert.NotContains(t, err.Error(), "record:")
	assert.Equal(t, NoRecord, RecordOf(err))
}

func TestStudioErrorIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"future format", NewUnsupportedVersionError(3, 1), ErrUnsupportedFormatVersion},
		{"malformed", NewMalformedTokenError(0, "x"), ErrMalformedToken},
		{"unknown tag", NewUnknownComponentError(1, "Zz"), ErrUnknownComponentType},
		{"clipboard", NewClipboardUnavailableError(errors.New("a"), errors.New("b")), ErrClipboardUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)

			wrapped := fmt.Errorf("loading bench: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
		})
	}

	assert.NotErrorIs(t, NewMalformedTokenError(0, "x"), ErrUnknownComponentType)
}

func TestKindPredicates(t *testing.T) {
	version := NewUnsupportedVersionError(2, 1)
	malformed := NewMalformedTokenError(4, "x")
	unknown := NewUnknownComponentError(0, "Q")
	clip := NewClipboardUnavailableError(nil, errors.New("no terminal"))

	assert.True(t, IsUnsupportedVersion(version))
	assert.False(t, IsUnsupportedVersion(malformed))
	assert.True(t, IsMalformed(malformed))
	assert.True(t, IsUnknownComponent(unknown))
	assert.True(t, IsClipboardUnavailable(clip))
	assert.True(t, IsRecoverable(clip))
	assert.False(t, IsRecoverable(malformed))
	assert.Equal(t, 4, RecordOf(fmt.Errorf("wrap: %w", malformed)))
	assert.Equal(t, NoRecord, RecordOf(errors.New("plain")))
}

func TestUserMessageDistinguishesKinds(t *testing.T) {
	version := UserMessage(NewUnsupportedVersionError(2, 1), language.English)
	malformed := UserMessage(NewMalformedTokenError(1, "x"), language.English)
	unknown := UserMessage(NewUnknownComponentError(0, "Q"), language.English)
	clip := UserMessage(NewClipboardUnavailableError(nil, nil), language.English)

	assert.Contains(t, version, "Update the app")
	assert.Contains(t, malformed, "invalid")
	assert.Contains(t, malformed, "component 2")
	assert.Contains(t, unknown, "(Q)")
	assert.Contains(t, clip, "Couldn't copy automatically")

	all := []string{version, malformed, unknown, clip}
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			assert.NotEqual(t, all[i], all[j])
		}
	}
}

func TestUserMessageLocalized(t *testing.T) {
	zh := UserMessage(NewUnsupportedVersionError(2, 1), language.SimplifiedChinese)
	en := UserMessage(NewUnsupportedVersionError(2, 1), language.English)

	assert.NotEqual(t, en, zh)
	assert.Contains(t, zh, "更新")
}

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   language.Tag
	}{
		{"", language.English},
		{"zh-CN,zh;q=0.9,en;q=0.8", language.SimplifiedChinese},
		{"en-US,en;q=0.9", language.English},
		{"fr-FR", language.English},
		{";;;", language.English},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchLanguage(tt.header))
		})
	}
}

type recordingLogger struct {
	warns  []string
	errors []string
}

func (r *recordingLogger) Error(_ context.Context, _ error, msg string, _ ...interface{}) {
	r.errors = append(r.errors, msg)
}

func (r *recordingLogger) Warn(_ context.Context, _ error, msg string, _ ...interface{}) {
	r.warns = append(r.warns, msg)
}

func TestErrorHandler(t *testing.T) {
	logger := &recordingLogger{}
	handler := NewErrorHandler(logger)
	ctx := context.Background()

	handler.Handle(ctx, nil)
	handler.Handle(ctx, NewMalformedTokenError(0, "x"))
	handler.Handle(ctx, NewClipboardUnavailableError(nil, nil))
	handler.Handle(ctx, NewInternalError(ErrCodeInternalError, "boom", nil))
	handler.Handle(ctx, errors.New("plain"))

	require.Len(t, logger.warns, 2)
	require.Len(t, logger.errors, 2)
	assert.Equal(t, "Unhandled error occurred", logger.errors[1])
}

func TestValidationErrorCollection(t *testing.T) {
	var vec ValidationErrorCollection
	assert.Nil(t, vec.ToStudioError())

	vec.AddField("components[0].type", "laserz", "unknown component type", "use one of: source, polarizer")
	vec.AddField("components[1].x", "abc", "not a number")

	require.True(t, vec.HasErrors())
	assert.Equal(t, "validation failed with 2 errors", vec.Error())

	se := vec.ToStudioError()
	require.NotNil(t, se)
	assert.Equal(t, ErrorTypeValidation, se.Type)
	assert.Contains(t, se.Context, "components[0].type")
}
