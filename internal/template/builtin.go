package template

// Well-known fact keys the engine and seed harvesting share. The intake
// fields live on every template so the synthesizer can always classify the
// activity before deciding which sections apply.
const (
	KeyActivityKind    = "activity.kind"
	KeyActivitySummary = "activity.summary"
)

// BuiltinID is the identifier of the bundled spec-document template.
const BuiltinID = "spec-document"

// Builtin returns the bundled spec-document template. Custom templates from
// .specloom/templates override it only under a different ID.
func Builtin() Template {
	return Template{
		ID:          BuiltinID,
		Name:        "Spec Document",
		Description: "General-purpose activity specification with flow, decisions, endpoints, migrations, components, tasks, and tests.",
		Sections: []Section{
			{
				ID:    "intake",
				Title: "Overview",
				Fields: []Field{
					{
						Key:    KeyActivityKind,
						Prompt: "What kind of activity is being specified?",
						Options: []Option{
							{Label: string(KindEndpoint), Description: "An HTTP endpoint or API surface", Recommended: true},
							{Label: string(KindCommand), Description: "A CLI command or utility script"},
							{Label: string(KindJob), Description: "A background job or scheduled task"},
							{Label: string(KindLibrary), Description: "A reusable library or internal package"},
						},
					},
					{
						Key:      KeyActivitySummary,
						Prompt:   "Summarize the activity in one sentence.",
						FreeForm: true,
					},
				},
			},
			{
				ID:    "flow",
				Title: "Flow Overview",
				Fields: []Field{
					{
						Key:      "flow.overview",
						Prompt:   "Walk through the main flow from trigger to outcome.",
						FreeForm: true,
					},
				},
			},
			{
				ID:    "decisions",
				Title: "Technical Decisions",
				Fields: []Field{
					{
						Key:      "decisions.approach",
						Prompt:   "Which technical approach should be used?",
						FreeForm: true,
					},
					{
						Key:    "decisions.storage",
						Prompt: "Where does runtime state live?",
						Options: []Option{
							{Label: "Redis", Description: "Shared cache, survives process restarts", Recommended: true},
							{Label: "in memory", Description: "Process-local, lost on restart"},
							{Label: "relational database", Description: "Durable, transactional"},
							{Label: "no state", Description: "The activity is stateless"},
						},
						FreeForm: true,
					},
					{
						Key:      "decisions.limits",
						Prompt:   "Name the concrete limits, rates, or thresholds.",
						FreeForm: true,
					},
				},
			},
			{
				ID:        "endpoints",
				Title:     "Endpoints",
				AppliesTo: []ActivityKind{KindEndpoint},
				Fields: []Field{
					{
						Key:      "endpoints.routes",
						Prompt:   "List the routes involved (method and path).",
						FreeForm: true,
					},
					{
						Key:      "endpoints.responses",
						Prompt:   "Describe the success and failure responses.",
						FreeForm: true,
					},
				},
			},
			{
				ID:        "migrations",
				Title:     "Migrations",
				AppliesTo: []ActivityKind{KindEndpoint, KindJob},
				Fields: []Field{
					{
						Key:    "migrations.changes",
						Prompt: "Does this activity change the database schema?",
						Options: []Option{
							{Label: "no schema changes", Recommended: true},
							{Label: "new table"},
							{Label: "alter existing table"},
						},
						AllowMultiple: true,
					},
				},
			},
			{
				ID:    "components",
				Title: "Components",
				Fields: []Field{
					{
						Key:      "components.touched",
						Prompt:   "Which components are created or modified?",
						FreeForm: true,
					},
				},
			},
			{
				ID:    "tasks",
				Title: "Implementation Tasks",
				Fields: []Field{
					{
						Key:      "tasks.breakdown",
						Prompt:   "Break the work into ordered implementation tasks.",
						FreeForm: true,
					},
				},
			},
			{
				ID:    "tests",
				Title: "Tests",
				Fields: []Field{
					{
						Key:      "tests.coverage",
						Prompt:   "Which scenarios must the tests cover?",
						FreeForm: true,
					},
				},
			},
		},
	}
}
