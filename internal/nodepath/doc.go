/*
Package nodepath provides the structured representation of node paths within
the tree.

A path is the ordered list of keys from the root to a node. Its canonical
string form joins the keys with dots, e.g. `root.axis1.line1`. The first key
always names the root of the tree.

Keys arriving over the wire are arbitrary non-empty strings; only the
canonical string form restricts them to characters that survive a round trip
through Parse.
*/
package nodepath
