// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all battle and netplay settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
)

// =============================================================================
// BATTLE SIMULATION CONFIGURATION
// =============================================================================

// BattleConfig holds the fixed parameters a deterministic simulation is
// stepped with. TickRate governs how often Simulation.Step is called;
// changing it between peers in the same session would desync them. Each
// process reads it from its own environment; nothing in the netplay
// messages checks that peers agree on it.
type BattleConfig struct {
	FieldWidth  int // columns
	FieldHeight int // rows
	TickRate    int // simulation steps per second
}

// DefaultBattle returns the default battle configuration.
func DefaultBattle() BattleConfig {
	return BattleConfig{
		FieldWidth:  6,
		FieldHeight: 3,
		TickRate:    60,
	}
}

// BattleFromEnv returns battle configuration with environment variable
// overrides.
func BattleFromEnv() BattleConfig {
	cfg := DefaultBattle()

	if w := getEnvInt("FIELD_WIDTH", 0); w > 0 {
		cfg.FieldWidth = w
	}
	if h := getEnvInt("FIELD_HEIGHT", 0); h > 0 {
		cfg.FieldHeight = h
	}
	if t := getEnvInt("TICK_RATE", 0); t > 0 {
		cfg.TickRate = t
	}

	return cfg
}

// =============================================================================
// NETPLAY CONFIGURATION
// =============================================================================

// NetplayConfig controls rollback and session-shape limits (§4.6).
type NetplayConfig struct {
	MaxRollbackFrames  int // oldest frame a late input may still correct
	MaxPeersPerSession int
	HeartbeatIntervalMS int

	// ResimulationBudgetSeconds is loaded here but not read by the
	// netplay Coordinator: a rollback always replays every frame up to
	// the current one, with no time limit.
	ResimulationBudgetSeconds float64
}

// DefaultNetplay returns the default netplay configuration.
func DefaultNetplay() NetplayConfig {
	return NetplayConfig{
		MaxRollbackFrames:         128,
		MaxPeersPerSession:        8,
		HeartbeatIntervalMS:       1000,
		ResimulationBudgetSeconds: 0.25,
	}
}

// NetplayFromEnv returns netplay configuration with environment variable
// overrides.
func NetplayFromEnv() NetplayConfig {
	cfg := DefaultNetplay()

	if r := getEnvInt("MAX_ROLLBACK_FRAMES", 0); r > 0 {
		cfg.MaxRollbackFrames = r
	}
	if p := getEnvInt("MAX_PEERS_PER_SESSION", 0); p > 0 {
		cfg.MaxPeersPerSession = p
	}
	if hb := getEnvInt("HEARTBEAT_INTERVAL_MS", 0); hb > 0 {
		cfg.HeartbeatIntervalMS = hb
	}
	if b := getEnvFloat("RESIMULATION_BUDGET_SECONDS", -1); b >= 0 {
		cfg.ResimulationBudgetSeconds = b
	}

	return cfg
}

// =============================================================================
// SCRIPTING HOST CONFIGURATION
// =============================================================================

// ScriptingConfig holds the scripting host settings (§5 Scripting host).
// scripting.Host keeps one VM per namespace; MaxVMsPerNamespace is not read
// by it.
type ScriptingConfig struct {
	MaxVMsPerNamespace int
	ScriptTimeoutMS    int
}

// DefaultScripting returns the default scripting host configuration.
func DefaultScripting() ScriptingConfig {
	return ScriptingConfig{
		MaxVMsPerNamespace: 4,
		ScriptTimeoutMS:    50,
	}
}

// ScriptingFromEnv returns scripting configuration with environment
// variable overrides.
func ScriptingFromEnv() ScriptingConfig {
	cfg := DefaultScripting()

	if v := getEnvInt("SCRIPT_MAX_VMS", 0); v > 0 {
		cfg.MaxVMsPerNamespace = v
	}
	if v := getEnvInt("SCRIPT_TIMEOUT_MS", 0); v > 0 {
		cfg.ScriptTimeoutMS = v
	}

	return cfg
}

// =============================================================================
// GAME RESOURCE LIMITS
// =============================================================================

// ResourceLimits lists DoS protection and performance limits. They are
// loaded into AppConfig, but no component reads or enforces them.
type ResourceLimits struct {
	MaxTotalSessions  int // Hard cap on total concurrent battle sessions
	MaxEntitiesPerSim int // Hard cap on live entities in one Simulation
	MaxAuxPropsPerSim int // Hard cap on live aux props in one Simulation
	MaxActionsPerSim  int // Hard cap on live actions in one Simulation
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxTotalSessions:  1000,
		MaxEntitiesPerSim: 64,
		MaxAuxPropsPerSim: 512,
		MaxActionsPerSim:  256,
	}
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port       int
	MaxPlayers int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:       3000,
		MaxPlayers: 100,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if mp := getEnvInt("MAX_PLAYERS", 0); mp > 0 {
		cfg.MaxPlayers = mp
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Battle    BattleConfig
	Netplay   NetplayConfig
	Scripting ScriptingConfig
	Server    ServerConfig
	Limits    ResourceLimits
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Battle:    BattleFromEnv(),
		Netplay:   NetplayFromEnv(),
		Scripting: ScriptingFromEnv(),
		Server:    ServerFromEnv(),
		Limits:    DefaultLimits(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
