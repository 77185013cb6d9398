// # References:
//
// AXI Quad SPI
//   - [PG153]: AXI Quad SPI LogiCORE IP Product Guide (https://docs.amd.com/v/u/en-US/pg153-axi-quad-spi)
//
// SPI Flash
//   - [N25Q256]: N25Q256A Micron Serial NOR Flash Memory datasheet (could not find the official public URL)
//   - [MX25L25645G]: Macronix MX25L25645G Serial NOR Flash Memory datasheet (https://www.macronix.com/Lists/Datasheet/Attachments/8677/MX25L25645G,%203V,%20256Mb,%20v1.6.pdf)
//
// Intel HEX
//   - [INTELHEX]: Intel HEX object file format specification (widely mirrored; no single canonical URL)
package qflash
