package catalog

// Stat names reported by the remote API.
const (
	StatHP             = "hp"
	StatAttack         = "attack"
	StatDefense        = "defense"
	StatSpecialAttack  = "special-attack"
	StatSpecialDefense = "special-defense"
	StatSpeed          = "speed"
)

// BuildEntityRow maps a decoded record onto a pokemon row. Stats are matched by
// name; names it does not recognise are returned so the caller can log them.
// Stats absent from the record stay at zero.
func BuildEntityRow(entityID int, rec RawRecord, sprites Sprites) (EntityRow, []string) {
	row := EntityRow{
		ExternalID:     entityID,
		Name:           rec.Name,
		LargeSprite:    sprites.Large,
		SmallSprite:    sprites.Small,
		BaseExperience: rec.BaseExperience,
		Height:         rec.Height,
		Weight:         rec.Weight,
	}

	var unknown []string
	for _, s := range rec.Stats {
		switch s.Stat.Name {
		case StatHP:
			row.HP = s.BaseStat
		case StatAttack:
			row.Attack = s.BaseStat
		case StatDefense:
			row.Defense = s.BaseStat
		case StatSpecialAttack:
			row.SpecialAttack = s.BaseStat
		case StatSpecialDefense:
			row.SpecialDefense = s.BaseStat
		case StatSpeed:
			row.Speed = s.BaseStat
		default:
			unknown = append(unknown, s.Stat.Name)
		}
	}
	return row, unknown
}

// TagsOf returns the type references of a record in slot order as reported.
func TagsOf(rec RawRecord) []TagType {
	if len(rec.Types) == 0 {
		return nil
	}
	tags := make([]TagType, 0, len(rec.Types))
	for _, t := range rec.Types {
		tags = append(tags, TagType{Name: t.Type.Name, URL: t.Type.URL})
	}
	return tags
}

// ResolveAssociations rewrites name-keyed associations to use generated tag
// IDs. A name missing from ids means the taxonomy and the associations were
// built from different traversals and is reported as ErrUnresolvedTag.
func ResolveAssociations(pending []PendingAssociation, ids map[string]int) ([]EntityTagAssociation, error) {
	out := make([]EntityTagAssociation, 0, len(pending))
	for _, p := range pending {
		id, ok := ids[p.TagName]
		if !ok {
			return nil, &UnresolvedTagError{EntityID: p.EntityID, TagName: p.TagName}
		}
		out = append(out, EntityTagAssociation{EntityID: p.EntityID, TagTypeID: id})
	}
	return out, nil
}
