package facilities

const (
	queryList = `
		SELECT
			id,
			name,
			COALESCE(type, ''),
			COALESCE(building, ''),
			COALESCE(floor::text, ''),
			COALESCE(unit_number, ''),
			COALESCE(attrs, '{}'::jsonb),
			COALESCE(open_days, '{}'),
			COALESCE(open_time::text, ''),
			COALESCE(close_time::text, ''),
			COALESCE(map_url, '')
		FROM facilities
		ORDER BY id
	`

	queryGet = `
		SELECT
			id,
			name,
			COALESCE(type, ''),
			COALESCE(building, ''),
			COALESCE(floor::text, ''),
			COALESCE(unit_number, ''),
			COALESCE(attrs, '{}'::jsonb),
			COALESCE(open_days, '{}'),
			COALESCE(open_time::text, ''),
			COALESCE(close_time::text, ''),
			COALESCE(map_url, '')
		FROM facilities
		WHERE id = $1
	`
)
