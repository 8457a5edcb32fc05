// Package sim provides a small simulated world for exercising behavior
// trees: a guard patrolling a ring of waypoints while enemies appear
// and deal damage. The world exposes its happenings as named streams,
// signals, and actions through a treespec registry.
package sim

import (
	"fmt"
	"math/rand"

	"github.com/aristath/behave/internal/event"
	"github.com/aristath/behave/internal/treespec"
)

const (
	maxHealth        = 100
	lowHealthMark    = 30
	enemyChance      = 0.10 // per tick, while no enemy is present
	enemyHitChance   = 0.50 // per tick, while an enemy is present
	attackHitChance  = 0.60
	restRecovery     = 15
	waypointDistance = 4 // patrol steps between waypoints
	missionKills     = 3 // defeated enemies for a completed shift
)

// World is a deterministic, seedable guard simulation. It is not safe
// for concurrent use: ticks and the tree handlers they trigger must
// run on one goroutine.
type World struct {
	rng *rand.Rand
	reg *treespec.Registry
	log func(string)

	position int
	health   int
	enemy    bool

	steps int
	kills int
	ticks int
}

// New creates a world seeded for reproducible runs. logf receives
// human-readable world happenings and may be nil.
func New(seed int64, logf func(string)) *World {
	w := &World{
		rng:    rand.New(rand.NewSource(seed)),
		reg:    treespec.NewRegistry(),
		log:    logf,
		health: maxHealth,
	}

	w.reg.Stream("tick")
	w.reg.Stream("waypoint")
	w.reg.Stream("noise")
	w.reg.Stream("damage")
	w.reg.Stream("mission")
	w.reg.Signal("enemy_visible", false)
	w.reg.Signal("low_health", false)

	// The damage stream's payload is "still standing", so holding it
	// yields the guard's alive status as a signal.
	w.reg.BindSignal("alive", event.Hold(w.reg.Stream("damage"), true))

	w.reg.Action("step_patrol", w.stepPatrol)
	w.reg.Action("attack", w.attack)
	w.reg.Action("flee", w.flee)
	w.reg.Action("rest", w.rest)

	return w
}

// Registry exposes the world's streams, signals, and actions for tree
// building.
func (w *World) Registry() *treespec.Registry { return w.reg }

// Health returns the guard's current health.
func (w *World) Health() int { return w.health }

// Position returns the guard's patrol position.
func (w *World) Position() int { return w.position }

// Kills returns the number of enemies the guard has defeated.
func (w *World) Kills() int { return w.kills }

// Ticks returns how many times the world has advanced.
func (w *World) Ticks() int { return w.ticks }

// Tick advances the world one step: enemies may appear and strike,
// and the per-tick pulse fires last so trees observe a settled world.
func (w *World) Tick() {
	w.ticks++

	if !w.enemy && w.rng.Float64() < enemyChance {
		w.enemy = true
		w.reg.Signal("enemy_visible", false).Set(true)
		w.say("enemy appears near position %d", w.position)
		w.reg.Stream("noise").Fire(true)
	}

	if w.enemy && w.rng.Float64() < enemyHitChance {
		hit := 10 + w.rng.Intn(16)
		w.health -= hit
		if w.health < 0 {
			w.health = 0
		}
		w.say("guard takes %d damage, health %d", hit, w.health)
		w.updateLowHealth()
		w.reg.Stream("damage").Fire(w.health > 0)
	}

	w.reg.Stream("tick").Fire(true)
}

// stepPatrol moves the guard one step along the patrol route, firing
// the waypoint stream each time a waypoint is reached.
func (w *World) stepPatrol() (bool, error) {
	w.position++
	w.steps++
	if w.position%waypointDistance == 0 {
		w.say("guard reaches waypoint %d", w.position/waypointDistance)
		w.reg.Stream("waypoint").Fire(true)
	}
	return true, nil
}

// attack swings at a visible enemy. Misses are a domain failure so
// trees can fall back to fleeing.
func (w *World) attack() (bool, error) {
	if !w.enemy {
		return false, nil
	}
	if w.rng.Float64() < attackHitChance {
		w.enemy = false
		w.kills++
		w.reg.Signal("enemy_visible", false).Set(false)
		w.say("guard defeats the enemy (%d total)", w.kills)
		if w.kills == missionKills {
			w.say("shift complete after %d kills", w.kills)
			w.reg.Stream("mission").Fire(true)
		}
		return true, nil
	}
	w.say("guard swings and misses")
	return false, nil
}

// flee breaks contact with the enemy.
func (w *World) flee() (bool, error) {
	if w.enemy {
		w.enemy = false
		w.reg.Signal("enemy_visible", false).Set(false)
		w.say("guard flees to safety")
	}
	return true, nil
}

// rest recovers health while the guard is out of combat.
func (w *World) rest() (bool, error) {
	if w.enemy {
		return false, nil
	}
	w.health += restRecovery
	if w.health > maxHealth {
		w.health = maxHealth
	}
	w.updateLowHealth()
	w.say("guard rests, health %d", w.health)
	return true, nil
}

func (w *World) updateLowHealth() {
	w.reg.Signal("low_health", false).Set(w.health < lowHealthMark)
}

func (w *World) say(format string, args ...any) {
	if w.log != nil {
		w.log(fmt.Sprintf(format, args...))
	}
}
