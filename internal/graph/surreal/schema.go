package surreal

const (
	nodeTable     = "entity_node"
	relationTable = "relation"
)

const schemaSQL = `
    DEFINE TABLE IF NOT EXISTS entity_node SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS type ON entity_node TYPE string;
    DEFINE FIELD IF NOT EXISTS value ON entity_node TYPE string;

    -- One table for all labels; rel_type carries the label.
    DEFINE TABLE IF NOT EXISTS relation TYPE RELATION IN entity_node OUT entity_node SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS rel_type ON relation TYPE string;
    DEFINE FIELD IF NOT EXISTS created ON relation TYPE datetime DEFAULT time::now();
    -- Directed: in, out and rel_type in order.
    DEFINE FIELD IF NOT EXISTS unique_key ON relation VALUE string::concat(<string>in, '->', <string>out, ':', rel_type);
    DEFINE INDEX IF NOT EXISTS unique_relation ON relation FIELDS unique_key UNIQUE;
`
