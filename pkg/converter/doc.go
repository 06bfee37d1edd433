// Package converter provides a serializer that runs records through a chain
// of transformations before handing them to a delegate serializer, like a
// Kafka Connect converter combined with Single Message Transformations.
//
// Configuration is a flat property set. "converter" names the delegate
// serializer and "converter.*" is passed to it with the prefix stripped.
// "transforms" lists stage aliases in order; every alias needs
// "transforms.<alias>.type" and may carry the options declared by that
// transformation type under "transforms.<alias>.":
//
//	converter=json
//	converter.schemas.enable=false
//	transforms=only,rename
//	transforms.only.type=filter
//	transforms.only.topics=orders.*
//	transforms.rename.type=replace
//	transforms.rename.renames=id:order_id
//
// Plugin types are resolved through a Registry. Built-in plugins register
// themselves with the default registry from the transform and serializer
// packages, so import them for their side effects:
//
//	import (
//		_ "github.com/edgeflare/smtconv/pkg/serializer"
//		_ "github.com/edgeflare/smtconv/pkg/transform"
//	)
//
// A stage returning a nil record drops it: later stages are skipped and
// Encode returns nil bytes without error.
package converter
