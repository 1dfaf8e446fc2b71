// utils/config.go
package utils

import (
	"log"
	"os"
	"strconv"
	"time"
)

// EngineConfig collects every tunable business rule. Values come from the
// environment so ops can retune caps and costs without a rebuild.
type EngineConfig struct {
	GiftDailyCap int64 // max coins one sender may gift in a trailing 24h window
	GiftMinimum  int64 // smallest allowed gift

	BattleEnergyCost        int     // energy both participants pay per battle
	BattleDefenderMinEnergy int     // defender below this is not a valid opponent
	AttackerWinProbability  float64 // explicit outcome rule: weighted coin flip

	EnergyRegenInterval time.Duration // +1 energy per interval, capped at 100

	EventReminderWindow time.Duration // slots starting within this window get a reminder
}

func LoadEngineConfig() EngineConfig {
	cfg := EngineConfig{
		GiftDailyCap:            envInt64("GIFT_DAILY_CAP", 50),
		GiftMinimum:             envInt64("GIFT_MINIMUM", 5),
		BattleEnergyCost:        int(envInt64("BATTLE_ENERGY_COST", 20)),
		BattleDefenderMinEnergy: int(envInt64("BATTLE_DEFENDER_MIN_ENERGY", 20)),
		AttackerWinProbability:  envFloat("BATTLE_ATTACKER_WIN_PROB", 0.5),
		EnergyRegenInterval:     envDuration("ENERGY_REGEN_INTERVAL", 5*time.Minute),
		EventReminderWindow:     envDuration("EVENT_REMINDER_WINDOW", time.Hour),
	}
	if cfg.AttackerWinProbability < 0 || cfg.AttackerWinProbability > 1 {
		log.Fatalf("BATTLE_ATTACKER_WIN_PROB must be within [0,1], got %v", cfg.AttackerWinProbability)
	}
	if cfg.EnergyRegenInterval <= 0 {
		log.Fatal("ENERGY_REGEN_INTERVAL must be positive")
	}
	return cfg
}

func envInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %d", key, raw, fallback)
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %v", key, raw, fallback)
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %s", key, raw, fallback)
		return fallback
	}
	return v
}
