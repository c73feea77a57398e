/*Package interval reads interval lists (BED-like, tab-separated
  "<name>\t<start>\t<end>" lines) into raw rows.  Numeric interpretation of the
  start/end columns is left to the caller; rows are returned exactly as they
  were split, so that callers can decide how to treat short or malformed lines.
*/
package interval
