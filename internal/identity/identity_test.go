package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActorFromContext(t *testing.T) {
	assert.Equal(t, SystemActor, ActorFromContext(context.Background()))
	assert.Equal(t, "u-42", ActorFromContext(WithActor(context.Background(), "u-42")))
	assert.Equal(t, SystemActor, ActorFromContext(WithActor(context.Background(), "")))
}
