package registry

// Entity names of the built-in catalog.
const (
	EntityGame     = "game"
	EntitySaveData = "savedata"
	EntityUser     = "user"
	EntityComment  = "comment"
	EntityTag      = "tag"
	EntityPlatform = "platform"
)

// Default returns the built-in catalog of the save-file sharing platform.
func Default() *Registry {
	r, err := New(DefaultEntities()...)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultEntities returns fresh copies of the built-in entity descriptors,
// so callers can extend them before building their own registry.
func DefaultEntities() []EntityDescriptor {
	return []EntityDescriptor{
		{
			Name:          EntityGame,
			Collection:    "games",
			IdentityField: "id",
			Fields: map[string]FieldDescriptor{
				"id":            {Type: Number},
				"igdbID":        {Type: Number, ExternalName: "id"},
				"title":         {Type: String, ExternalName: "name", Transform: TransformSlug, SlugField: "slug"},
				"platformID":    {Type: Array(Number), StoreName: "platformIDs", ExternalName: "platforms", Transform: TransformPlatform},
				"releaseDate":   {Type: Date, ExternalName: "first_release_date"},
				"rating":        {Type: Number, ExternalName: "total_rating"},
				"genres":        {Type: Array(String), ExternalName: "genres.name"},
				"summary":       {Type: String, ExternalName: "summary"},
				"downloads":     {Type: Number},
				"favoriteCount": {Type: Number},
				"saveCount":     {Type: Number},
				"createdAt":     {Type: Date},
			},
			MutableFields: []string{"title", "platformID", "releaseDate", "rating", "genres", "summary"},
			External: &ExternalDescriptor{
				Endpoint:           "games",
				IdentityField:      "id",
				LocalIdentityField: "igdbID",
				Fields:             []string{"id", "name", "slug", "platforms", "first_release_date", "total_rating", "genres.name", "summary"},
			},
		},
		{
			Name:          EntitySaveData,
			Collection:    "savedatas",
			IdentityField: "id",
			Fields: map[string]FieldDescriptor{
				"id":          {Type: Number},
				"gameID":      {Type: Number},
				"userID":      {Type: Number},
				"title":       {Type: String},
				"description": {Type: String},
				"platformID":  {Type: Number},
				"downloads":   {Type: Number},
				"tags":        {Type: Array(Number)},
				"private":     {Type: Boolean},
				"createdAt":   {Type: Date},
			},
			MutableFields: []string{"title", "description", "platformID", "tags", "private"},
			Relations: map[string]Relation{
				EntityGame:     {ForeignKey: "gameID"},
				EntityUser:     {ForeignKey: "userID", Cascade: true},
				EntityPlatform: {ForeignKey: "platformID"},
				EntityTag:      {ForeignKey: "tags"},
			},
		},
		{
			Name:          EntityUser,
			Collection:    "users",
			IdentityField: "id",
			Fields: map[string]FieldDescriptor{
				"id":        {Type: Number},
				"username":  {Type: String},
				"role":      {Type: String},
				"verified":  {Type: Boolean},
				"createdAt": {Type: Date},
			},
			MutableFields: []string{"username", "role", "verified"},
		},
		{
			Name:          EntityComment,
			Collection:    "comments",
			IdentityField: "id",
			Fields: map[string]FieldDescriptor{
				"id":        {Type: Number},
				"saveID":    {Type: Number},
				"userID":    {Type: Number},
				"content":   {Type: String},
				"createdAt": {Type: Date},
			},
			MutableFields: []string{"content"},
			Relations: map[string]Relation{
				EntitySaveData: {ForeignKey: "saveID", Cascade: true},
				EntityUser:     {ForeignKey: "userID", Cascade: true},
			},
		},
		{
			Name:          EntityTag,
			Collection:    "tags",
			IdentityField: "id",
			Fields: map[string]FieldDescriptor{
				"id":   {Type: Number},
				"name": {Type: String},
			},
			MutableFields: []string{"name"},
		},
		{
			Name:          EntityPlatform,
			Collection:    "platforms",
			IdentityField: "id",
			Fields: map[string]FieldDescriptor{
				"id":     {Type: Number},
				"name":   {Type: String},
				"igdbID": {Type: Number},
			},
			MutableFields: []string{"name", "igdbID"},
		},
	}
}
