package storage

// schemaStatements create the full game-state schema. Extensible fields live
// in `proto` TEXT columns holding deterministic JSON; everything the block
// transition filters or orders on is an indexed column.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS schema_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS counters (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);`,
	`INSERT INTO counters (name, value)
		SELECT 'entity_id', 0
		WHERE NOT EXISTS (SELECT 1 FROM counters WHERE name = 'entity_id');`,

	`CREATE TABLE IF NOT EXISTS accounts (
		name TEXT PRIMARY KEY,
		faction INTEGER NOT NULL,
		kills INTEGER NOT NULL DEFAULT 0,
		fame INTEGER NOT NULL DEFAULT 0,
		coins INTEGER NOT NULL DEFAULT 0,
		proto TEXT NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS characters (
		id INTEGER PRIMARY KEY,
		owner TEXT NOT NULL,
		faction INTEGER NOT NULL,
		x INTEGER NULL,
		y INTEGER NULL,
		in_building INTEGER NULL,
		enter_building INTEGER NULL,
		busy_blocks INTEGER NOT NULL DEFAULT 0,
		moving INTEGER NOT NULL DEFAULT 0,
		mining INTEGER NOT NULL DEFAULT 0,
		attack_range INTEGER NOT NULL DEFAULT 0,
		can_regen INTEGER NOT NULL DEFAULT 0,
		target_kind INTEGER NULL,
		target_id INTEGER NULL,
		armour INTEGER NOT NULL,
		shield INTEGER NOT NULL,
		armour_mhp INTEGER NOT NULL DEFAULT 0,
		shield_mhp INTEGER NOT NULL DEFAULT 0,
		regen TEXT NOT NULL,
		proto TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_characters_owner ON characters (owner);`,
	`CREATE INDEX IF NOT EXISTS idx_characters_pos ON characters (x, y);`,
	`CREATE INDEX IF NOT EXISTS idx_characters_building ON characters (in_building);`,
	`CREATE INDEX IF NOT EXISTS idx_characters_busy ON characters (busy_blocks);`,
	`CREATE INDEX IF NOT EXISTS idx_characters_moving ON characters (moving);`,
	`CREATE INDEX IF NOT EXISTS idx_characters_mining ON characters (mining);`,

	`CREATE TABLE IF NOT EXISTS buildings (
		id INTEGER PRIMARY KEY,
		type TEXT NOT NULL,
		owner TEXT NULL,
		faction INTEGER NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		attack_range INTEGER NOT NULL DEFAULT 0,
		can_regen INTEGER NOT NULL DEFAULT 0,
		target_kind INTEGER NULL,
		target_id INTEGER NULL,
		armour INTEGER NOT NULL,
		shield INTEGER NOT NULL,
		armour_mhp INTEGER NOT NULL DEFAULT 0,
		shield_mhp INTEGER NOT NULL DEFAULT 0,
		regen TEXT NOT NULL,
		proto TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_buildings_pos ON buildings (x, y);`,

	`CREATE TABLE IF NOT EXISTS regions (
		id INTEGER PRIMARY KEY,
		modified_height INTEGER NOT NULL,
		resource_left INTEGER NOT NULL DEFAULT 0,
		proto TEXT NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS ongoing_operations (
		id INTEGER PRIMARY KEY,
		height INTEGER NOT NULL,
		character_id INTEGER NULL,
		building_id INTEGER NULL,
		proto TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_ongoing_height ON ongoing_operations (height);`,
	`CREATE INDEX IF NOT EXISTS idx_ongoing_character ON ongoing_operations (character_id);`,
	`CREATE INDEX IF NOT EXISTS idx_ongoing_building ON ongoing_operations (building_id);`,

	`CREATE TABLE IF NOT EXISTS damage_lists (
		victim_kind INTEGER NOT NULL,
		victim_id INTEGER NOT NULL,
		attacker TEXT NOT NULL,
		height INTEGER NOT NULL,
		PRIMARY KEY (victim_kind, victim_id, attacker)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_damage_height ON damage_lists (height);`,

	`CREATE TABLE IF NOT EXISTS ground_loot (
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		proto TEXT NOT NULL,
		PRIMARY KEY (x, y)
	);`,

	`CREATE TABLE IF NOT EXISTS building_inventories (
		building_id INTEGER NOT NULL,
		account TEXT NOT NULL,
		proto TEXT NOT NULL,
		PRIMARY KEY (building_id, account)
	);`,

	`CREATE TABLE IF NOT EXISTS trade_orders (
		id INTEGER PRIMARY KEY,
		building_id INTEGER NOT NULL,
		account TEXT NOT NULL,
		side INTEGER NOT NULL,
		item TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_orders_book ON trade_orders (building_id, item, side);`,

	`CREATE TABLE IF NOT EXISTS prize_counters (
		name TEXT PRIMARY KEY,
		found INTEGER NOT NULL DEFAULT 0
	);`,
}
