package mongo

import (
	"reflect"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/modhaven/modhaven/internal/core/query"
)

// matchNothing is the translation of a branch that can never pass, such as a
// substring match with a non-string value. The in-memory engine fails these
// closed, so the database filter must too.
var matchNothing = bson.M{"$expr": false}

// ToFilter translates a query into an equivalent MongoDB filter. It must
// make the same decisions as query.Evaluate: substring and prefix matches
// become case-insensitive escaped regexes, array values become $all
// superset tests, negation wraps the translated branch, and OR branches
// become an explicit $or merged into the $and of all top-level keys.
func ToFilter(q query.Query) bson.M {
	if len(q) == 0 {
		return bson.M{}
	}

	and := make(bson.A, 0, len(q))
	for rawKey, value := range q {
		branches := query.Branches(rawKey)
		if len(branches) == 1 {
			and = append(and, branchFilter(branches[0], value))
			continue
		}

		or := make(bson.A, 0, len(branches))
		for _, branch := range branches {
			or = append(or, branchFilter(branch, value))
		}
		and = append(and, bson.M{"$or": or})
	}

	return bson.M{"$and": and}
}

func branchFilter(rawKey string, value any) bson.M {
	k := query.ParseKey(rawKey)

	var filter bson.M
	switch k.Mode {
	case query.ModeSubstring, query.ModePrefix:
		pattern, ok := value.(string)
		if !ok {
			filter = matchNothing
			break
		}
		escaped := regexp.QuoteMeta(pattern)
		if k.Mode == query.ModePrefix {
			escaped = "^" + escaped
		}
		filter = bson.M{k.Path: bson.M{"$regex": escaped, "$options": "i"}}

	case query.ModeExists:
		if query.Truthy(value) {
			filter = bson.M{k.Path: bson.M{"$ne": nil}}
		} else {
			filter = bson.M{k.Path: nil}
		}

	default:
		if elements, ok := asArray(value); ok {
			filter = bson.M{k.Path: bson.M{"$all": elements}}
		} else {
			filter = bson.M{k.Path: value}
		}
	}

	if k.Negate {
		return bson.M{"$nor": bson.A{filter}}
	}
	return filter
}

func asArray(v any) (bson.A, bool) {
	if v == nil {
		return nil, false
	}
	if a, ok := v.(bson.A); ok {
		return a, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make(bson.A, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
