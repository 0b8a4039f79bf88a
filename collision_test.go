package impulse

import (
	"testing"

	"github.com/akmonengine/impulse/actor"
)

func TestAcceptPair(t *testing.T) {
	dynamic := eventSnapshot(1, actor.BodyKindDynamic, false)
	asleep := eventSnapshot(2, actor.BodyKindDynamic, true)
	static := eventSnapshot(3, actor.BodyKindStatic, false)
	kinematic := eventSnapshot(4, actor.BodyKindKinematic, false)
	trigger := eventSnapshot(5, actor.BodyKindStatic, false)
	trigger.trigger = true

	tests := []struct {
		name string
		a, b bodySnapshot
		want bool
	}{
		{"dynamic and static", dynamic, static, true},
		{"asleep and static", asleep, static, true},
		{"both asleep", asleep, asleep, true},
		{"static and static", static, static, false},
		{"kinematic and static", kinematic, static, false},
		{"kinematic and trigger", kinematic, trigger, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := acceptPair(&tt.a, &tt.b); got != tt.want {
				t.Errorf("acceptPair() = %v, want %v", got, tt.want)
			}
		})
	}
}
