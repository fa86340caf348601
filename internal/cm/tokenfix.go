package cm

import "fmt"

// tokenFixer patches self referencing fields in a record group with
// the token the group was assigned on insertion.
type tokenFixer func(token Token, records []any) error

// tokenFixers lists the object types that carry their own token. A
// record with its token already set was inserted twice.
var tokenFixers = map[ObjectID]tokenFixer{
	ArchProcHierarchyInfo: fixProcHierarchyToken,
}

func fixProcHierarchyToken(token Token, records []any) error {
	for i, record := range records {
		info, ok := record.(*ProcHierarchyInfo)
		if !ok {
			return fmt.Errorf("cm: token fixer: record %d is %T: %w", i, record, ErrInvalidArgument)
		}
		if info.Token != NullToken {
			return fmt.Errorf("cm: token fixer: record %d already has token %d: %w", i, info.Token, ErrInvalidArgument)
		}
		info.Token = token
	}
	return nil
}
