package article_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/articles/pkg/article"
)

func TestFieldsValidate(t *testing.T) {
	require.NoError(t, article.Fields{Title: "T", Body: "B"}.Validate())

	err := article.Fields{Title: "  ", Body: "\n"}.Validate()
	var verr *article.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"can't be blank"}, verr.Fields["title"])
	assert.Equal(t, []string{"can't be blank"}, verr.Fields["body"])
	assert.Equal(t, []string{"body can't be blank", "title can't be blank"}, verr.Messages())

	err = article.Fields{Title: "T"}.Validate()
	require.True(t, errors.As(err, &verr))
	assert.NotContains(t, verr.Fields, "title")
}

func TestParseID(t *testing.T) {
	id, err := article.ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, article.ID(42), id)
	assert.Equal(t, "42", id.String())

	id, err = article.ParseID("new")
	require.NoError(t, err)
	assert.True(t, id.IsDraft())
	assert.Equal(t, "new", id.String())

	for _, s := range []string{"", "abc", "0", "-3"} {
		_, err := article.ParseID(s)
		assert.Error(t, err, s)
	}
}

func TestParsePatch(t *testing.T) {
	p, err := article.ParsePatch([]byte(`{"title":"T","body":"B","published":true,"extra":1}`))
	require.NoError(t, err)
	assert.Equal(t, article.Fields{Title: "T", Body: "B", Published: true}, p.Apply(article.Fields{}))

	// Rails-style wrapping.
	p, err = article.ParsePatch([]byte(`{"article":{"title":"Updated Title"}}`))
	require.NoError(t, err)
	assert.Nil(t, p.Body)
	assert.Equal(t, article.Fields{Title: "Updated Title", Body: "old"},
		p.Apply(article.Fields{Title: "old", Body: "old"}))

	_, err = article.ParsePatch([]byte(`{"title":3,"published":"yes"}`))
	var verr *article.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"must be a string"}, verr.Fields["title"])
	assert.Equal(t, []string{"must be a boolean"}, verr.Fields["published"])

	for _, in := range []string{`[]`, `nope`, `null`} {
		_, err = article.ParsePatch([]byte(in))
		assert.ErrorIs(t, err, article.ErrMalformed, in)
	}
}
