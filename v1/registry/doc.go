// Package registry holds the static catalog of queryable entities.
//
// An EntityDescriptor lists every filterable field of an entity together with its
// semantic type, its document-store name and, for entities the external search
// service knows, its external name. Fields without an external name are local-only:
// filtering or sorting on them forces the hybrid orchestrator to consult the local
// store first.
//
// Relations between entities are declared by entity name (see Relation) and resolved
// through the Registry at query time, so game and savedata can refer to each other
// without any initialization order between them.
//
// A Registry is read-only after New and safe for concurrent use.
//
// Basic Usage:
//
//	reg := registry.Default()
//	game, err := reg.Describe("game")
//	if err != nil {
//	    // queryerr.ErrUnknownEntity
//	}
//	title, _ := game.Field("title")
//	fmt.Println(title.Store(), title.Type)
//
// Custom catalogs are built from descriptors:
//
//	reg, err := registry.New(registry.EntityDescriptor{
//	    Name:          "review",
//	    IdentityField: "id",
//	    Fields: map[string]registry.FieldDescriptor{
//	        "id":    {Type: registry.Number},
//	        "score": {Type: registry.Number},
//	    },
//	})
package registry
